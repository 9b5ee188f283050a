// Package service holds request-independent business logic between handlers and repositories.
package service

import (
	"context"
	"time"

	"postblog/internal/auth"
	"postblog/internal/models"
	"postblog/internal/observability"
	"postblog/internal/repository"
	"postblog/internal/validation"
)

// TokenIssuer issues and revokes session tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (auth.IssuedToken, error)
	Revoke(ctx context.Context, token string) error
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   TokenIssuer
}

type RegisterInput struct {
	Username string
	Password string
	FullName *string
}

type LoginInput struct {
	Username string
	Password string
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, hasher: hasher, tokens: tokens}
}

// Register creates the account and signs the first session token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (auth.IssuedToken, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return auth.IssuedToken{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return auth.IssuedToken{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return auth.IssuedToken{}, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return auth.IssuedToken{}, err
	}
	if existing != nil {
		return auth.IssuedToken{}, models.ErrDuplicateUsername
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return auth.IssuedToken{}, models.NewInternalError(err)
	}

	user := &models.User{
		Username:       in.Username,
		HashedPassword: hashed,
		FullName:       in.FullName,
		Posts:          []models.Post{},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return auth.IssuedToken{}, err
	}

	return s.issue(user.Username)
}

// Login checks the credentials and signs a new session token.
// Unknown users and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (auth.IssuedToken, error) {
	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return auth.IssuedToken{}, err
	}
	if user == nil || !s.hasher.Verify(in.Password, user.HashedPassword) {
		observability.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return auth.IssuedToken{}, models.ErrInvalidCredentials
	}

	return s.issue(user.Username)
}

// Logout revokes token when one was presented.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, token)
}

func (s *AuthService) issue(username string) (auth.IssuedToken, error) {
	issued, err := s.tokens.Issue(username, 0)
	if err != nil {
		return auth.IssuedToken{}, models.NewInternalError(err)
	}
	return issued, nil
}
