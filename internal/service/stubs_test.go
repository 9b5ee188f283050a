package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"postblog/internal/auth"
	"postblog/internal/models"

	"github.com/stretchr/testify/assert"
)

type userRepoStub struct {
	createFn         func(context.Context, *models.User) error
	getByUsernameFn  func(context.Context, string) (*models.User, error)
	appendPostFn     func(context.Context, string, models.Post) (int64, error)
	updatePostFn     func(context.Context, string, string, models.PostPatch) (int64, error)
	removePostFn     func(context.Context, string, string) (int64, error)
	listFn           func(context.Context) ([]models.User, error)
	findPostOwnersFn func(context.Context, string, int) ([]models.User, error)
	pingFn           func(context.Context) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) AppendPost(ctx context.Context, username string, post models.Post) (int64, error) {
	return s.appendPostFn(ctx, username, post)
}
func (s *userRepoStub) UpdatePost(ctx context.Context, username, postID string, patch models.PostPatch) (int64, error) {
	return s.updatePostFn(ctx, username, postID, patch)
}
func (s *userRepoStub) RemovePost(ctx context.Context, username, postID string) (int64, error) {
	return s.removePostFn(ctx, username, postID)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) FindPostOwners(ctx context.Context, postID string, limit int) ([]models.User, error) {
	return s.findPostOwnersFn(ctx, postID, limit)
}
func (s *userRepoStub) Ping(ctx context.Context) error {
	return s.pingFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:         func(context.Context, *models.User) error { return nil },
		getByUsernameFn:  func(context.Context, string) (*models.User, error) { return nil, nil },
		appendPostFn:     func(context.Context, string, models.Post) (int64, error) { return 1, nil },
		updatePostFn:     func(context.Context, string, string, models.PostPatch) (int64, error) { return 1, nil },
		removePostFn:     func(context.Context, string, string) (int64, error) { return 1, nil },
		listFn:           func(context.Context) ([]models.User, error) { return nil, nil },
		findPostOwnersFn: func(context.Context, string, int) ([]models.User, error) { return nil, nil },
		pingFn:           func(context.Context) error { return nil },
	}
}

type tokenIssuerStub struct {
	issued  []string
	revoked []string
	issueFn func(string, time.Duration) (auth.IssuedToken, error)
	err     error
}

func (s *tokenIssuerStub) Issue(subject string, ttl time.Duration) (auth.IssuedToken, error) {
	s.issued = append(s.issued, subject)
	if s.issueFn != nil {
		return s.issueFn(subject, ttl)
	}
	return auth.IssuedToken{Token: "token-for-" + subject, ExpiresAt: time.Now().Add(30 * time.Minute)}, nil
}

func (s *tokenIssuerStub) Revoke(_ context.Context, token string) error {
	if s.err != nil {
		return s.err
	}
	s.revoked = append(s.revoked, token)
	return nil
}

type revocationRepoStub struct {
	pruneFn func(context.Context, time.Time) (int64, error)
	calls   chan time.Time
}

func (s *revocationRepoStub) Add(context.Context, string, time.Time) error { return nil }
func (s *revocationRepoStub) Contains(context.Context, string) (bool, error) {
	return false, nil
}
func (s *revocationRepoStub) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	if s.calls != nil {
		s.calls <- now
	}
	return s.pruneFn(ctx, now)
}

func assertAppError(t *testing.T, err error, want *models.AppError) {
	t.Helper()
	var appErr *models.AppError
	if assert.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err) {
		assert.Equal(t, want.Code, appErr.Code)
	}
}

func strPtr(s string) *string { return &s }
