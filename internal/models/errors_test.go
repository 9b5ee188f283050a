package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"Malformed", ErrTokenMalformed, http.StatusUnauthorized},
		{"Expired", ErrTokenExpired, http.StatusUnauthorized},
		{"Revoked", ErrTokenRevoked, http.StatusUnauthorized},
		{"Invalid Credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"User Not Found", ErrUserNotFound, http.StatusNotFound},
		{"Duplicate Username", ErrDuplicateUsername, http.StatusBadRequest},
		{"Post Not Found", ErrPostNotFound, http.StatusNotFound},
		{"Ambiguous Post", ErrAmbiguousPost, http.StatusConflict},
		{"Empty Update", ErrEmptyUpdate, http.StatusBadRequest},
		{"Write Failure", ErrWriteFailure, http.StatusInternalServerError},
		{"Validation", NewValidationError("bad"), http.StatusBadRequest},
		{"Internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"Plain Error", errors.New("plain"), http.StatusInternalServerError},
		{"Wrapped Sentinel", fmt.Errorf("resolve: %w", ErrTokenExpired), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	derived := ErrPostNotFound.WithMessage("Post not found")
	assert.True(t, errors.Is(derived, ErrPostNotFound))
	assert.False(t, errors.Is(derived, ErrUserNotFound))

	cause := errors.New("connection reset")
	wrapped := ErrWriteFailure.Wrap(cause)
	assert.True(t, errors.Is(wrapped, ErrWriteFailure))
	assert.True(t, errors.Is(wrapped, cause))
}

func TestRespondWithError_HidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return Respond(c, NewInternalError(errors.New("dial tcp 10.0.0.1:27017")))
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return Respond(c, ErrEmptyUpdate)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeInternal, body.Code)
	assert.Empty(t, body.Details)

	resp2, err := app.Test(httptest.NewRequest(http.MethodGet, "/validation", nil))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	var body2 ErrorResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body2))
	assert.Equal(t, "No fields to update", body2.Error)
	assert.Equal(t, CodeEmptyUpdate, body2.Code)
}

func TestPostPatch(t *testing.T) {
	t.Parallel()

	assert.True(t, PostPatch{}.IsEmpty())

	title := "new title"
	patch := PostPatch{Title: &title}
	assert.False(t, patch.IsEmpty())

	desc := "kept"
	post := Post{PostID: "p1", Description: &desc}
	patch.Apply(&post)
	require.NotNil(t, post.Title)
	assert.Equal(t, "new title", *post.Title)
	require.NotNil(t, post.Description)
	assert.Equal(t, "kept", *post.Description, "description should be unchanged when not provided")

	title = "mutated after apply"
	assert.Equal(t, "new title", *post.Title, "apply must copy values")
}

func TestUser_PostsOrEmpty(t *testing.T) {
	t.Parallel()

	var nilUser *User
	assert.NotNil(t, nilUser.PostsOrEmpty())
	assert.Len(t, (&User{}).PostsOrEmpty(), 0)

	u := &User{Posts: []Post{{PostID: "a"}}}
	assert.Len(t, u.PostsOrEmpty(), 1)
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(User{Username: "alice", HashedPassword: "$2a$10$secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "hashed_password")
}
