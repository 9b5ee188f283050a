package repository

import (
	"context"
	"time"
)

// RevocationRepository persists revoked session tokens until they expire.
type RevocationRepository interface {
	// Add records token as revoked. Adding the same token twice is harmless.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	// PruneExpired deletes entries that expired before now and returns how many were removed.
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}
