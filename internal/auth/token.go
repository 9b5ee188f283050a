package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postblog/internal/models"
	"postblog/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when neither the caller nor the config sets a lifetime.
const DefaultTokenTTL = 30 * time.Minute

// RevocationStore persists revoked tokens until they expire.
type RevocationStore interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// TokenConfig configures signing for a TokenService.
type TokenConfig struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

// IssuedToken is a signed session token and the instant it stops validating.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenService issues and validates HMAC-signed session tokens.
type TokenService struct {
	secret  []byte
	method  *jwt.SigningMethodHMAC
	ttl     time.Duration
	revoked RevocationStore
	now     func() time.Time
}

// NewTokenService returns a TokenService backed by the given revocation store.
func NewTokenService(cfg TokenConfig, revoked RevocationStore) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if revoked == nil {
		return nil, errors.New("revocation store is required")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret:  []byte(cfg.Secret),
		method:  method,
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// WithClock replaces the service clock. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject valid for ttl, or the default lifetime when ttl <= 0.
func (s *TokenService) Issue(subject string, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
		"jti": uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	observability.TokensIssued.Inc()
	return IssuedToken{Token: signed, ExpiresAt: time.Unix(expiresAt.Unix(), 0)}, nil
}

// Validate returns the subject of token. Checks run in order: revocation,
// signature, expiry, subject. A revocation store failure rejects the token.
func (s *TokenService) Validate(ctx context.Context, token string) (string, error) {
	revoked, err := s.revoked.Contains(ctx, token)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("check revocation: %w", err))
	}
	if revoked {
		observability.AuthFailures.WithLabelValues("revoked").Inc()
		return "", models.ErrTokenRevoked
	}

	parsed, err := jwt.Parse(token, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			observability.AuthFailures.WithLabelValues("expired").Inc()
			return "", models.ErrTokenExpired
		}
		observability.AuthFailures.WithLabelValues("malformed").Inc()
		return "", models.ErrTokenMalformed.Wrap(err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		observability.AuthFailures.WithLabelValues("malformed").Inc()
		return "", models.ErrTokenMalformed
	}
	return subject, nil
}

// Revoke adds token to the revocation store until its expiry. Tokens with a
// bad signature or that have already expired are ignored since they can
// never validate.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	parsed, err := jwt.Parse(token, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(s.now()) {
		return nil
	}

	if err := s.revoked.Add(ctx, token, exp.Time); err != nil {
		return models.NewInternalError(fmt.Errorf("store revocation: %w", err))
	}
	observability.TokensRevoked.Inc()
	return nil
}

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return s.secret, nil
}
