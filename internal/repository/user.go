// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"strings"

	"postblog/internal/models"
	"postblog/internal/observability"
)

// UserRepository defines persistence operations for users and their embedded posts.
// Every mutation touches a single user record.
type UserRepository interface {
	// Create stores a new user. It returns models.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername returns (nil, nil) when no user has that username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// AppendPost adds post to the user's list and returns the number of users modified.
	AppendPost(ctx context.Context, username string, post models.Post) (int64, error)
	// UpdatePost applies patch to the user's post and returns the number of posts matched.
	UpdatePost(ctx context.Context, username, postID string, patch models.PostPatch) (int64, error)
	// RemovePost deletes the user's post and returns the number of users modified.
	RemovePost(ctx context.Context, username, postID string) (int64, error)
	List(ctx context.Context) ([]models.User, error)
	// FindPostOwners returns at most limit users holding a post with postID.
	FindPostOwners(ctx context.Context, postID string, limit int) ([]models.User, error)
	Ping(ctx context.Context) error
}

// instrument wraps store calls in a client span and a latency observation.
type instrument struct {
	system     string
	collection string
	metrics    *observability.StoreMetrics
}

func newInstrument(system, collection string) instrument {
	return instrument{
		system:     system,
		collection: collection,
		metrics:    observability.NewStoreMetrics(system),
	}
}

func (i instrument) start(ctx context.Context, operation string) (context.Context, func(error)) {
	ctx, span := observability.StartStoreSpan(ctx, i.system, operation, i.collection)
	done := i.metrics.TrackOperation(i.collection + "." + operation)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		done()
		span.End()
	}
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func normalizePosts(users []models.User) []models.User {
	for i := range users {
		users[i].Posts = users[i].PostsOrEmpty()
	}
	return users
}
