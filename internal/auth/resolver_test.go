package auth

import (
	"context"
	"errors"
	"testing"

	"postblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) Validate(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestResolver_NoToken(t *testing.T) {
	r := NewResolver(new(mockValidator), new(mockUsers))
	_, err := r.Resolve(context.Background(), "", "")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestResolver_ExplicitTokenWinsOverCookie(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockValidator)
	users := new(mockUsers)
	tokens.On("Validate", ctx, "explicit").Return("alice", nil)
	users.On("GetByUsername", ctx, "alice").Return(&models.User{Username: "alice"}, nil)

	user, err := NewResolver(tokens, users).Resolve(ctx, "explicit", "cookie")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	tokens.AssertNotCalled(t, "Validate", ctx, "cookie")
}

func TestResolver_FallsBackToCookie(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockValidator)
	users := new(mockUsers)
	tokens.On("Validate", ctx, "cookie").Return("bob", nil)
	users.On("GetByUsername", ctx, "bob").Return(&models.User{Username: "bob"}, nil)

	user, err := NewResolver(tokens, users).Resolve(ctx, "", "cookie")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestResolver_PropagatesTokenErrors(t *testing.T) {
	ctx := context.Background()
	for _, want := range []error{models.ErrTokenExpired, models.ErrTokenRevoked, models.ErrTokenMalformed} {
		tokens := new(mockValidator)
		tokens.On("Validate", ctx, "tok").Return("", want)

		_, err := NewResolver(tokens, new(mockUsers)).Resolve(ctx, "tok", "")
		assert.ErrorIs(t, err, want)
	}
}

func TestResolver_UserGone(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockValidator)
	users := new(mockUsers)
	tokens.On("Validate", ctx, "tok").Return("ghost", nil)
	users.On("GetByUsername", ctx, "ghost").Return(nil, nil)

	_, err := NewResolver(tokens, users).Resolve(ctx, "tok", "")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Equal(t, 404, models.HTTPStatus(err))
}

func TestResolver_LookupFailure(t *testing.T) {
	ctx := context.Background()
	tokens := new(mockValidator)
	users := new(mockUsers)
	tokens.On("Validate", ctx, "tok").Return("alice", nil)
	users.On("GetByUsername", ctx, "alice").Return(nil, errors.New("connection refused"))

	_, err := NewResolver(tokens, users).Resolve(ctx, "tok", "")
	require.Error(t, err)
	assert.Equal(t, 500, models.HTTPStatus(err))
}
