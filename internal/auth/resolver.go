package auth

import (
	"context"
	"fmt"

	"postblog/internal/models"
)

// TokenValidator returns the subject of a valid session token.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// UserLookup finds a user by username, returning (nil, nil) when absent.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Resolver turns a presented session token into the user it belongs to.
type Resolver struct {
	tokens TokenValidator
	users  UserLookup
}

// NewResolver returns a Resolver.
func NewResolver(tokens TokenValidator, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve authenticates the request. explicitToken (query parameter or bearer
// header) takes precedence over cookieToken. Token failures propagate
// unchanged; a valid token whose user no longer exists yields ErrUserNotFound.
func (r *Resolver) Resolve(ctx context.Context, explicitToken, cookieToken string) (*models.User, error) {
	token := explicitToken
	if token == "" {
		token = cookieToken
	}
	if token == "" {
		return nil, models.ErrUnauthenticated
	}

	username, err := r.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("lookup user: %w", err))
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}
