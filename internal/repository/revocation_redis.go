package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"postblog/internal/models"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:"

type redisRevocationRepository struct {
	rdb  *redis.Client
	inst instrument
	now  func() time.Time
}

// NewRedisRevocationRepository returns a RevocationRepository that stores each
// revoked token as a key expiring with the token.
func NewRedisRevocationRepository(rdb *redis.Client) RevocationRepository {
	return &redisRevocationRepository{rdb: rdb, inst: newInstrument("redis", "blacklist"), now: time.Now}
}

// blacklistKey hashes the token so keys stay short.
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistKeyPrefix + hex.EncodeToString(sum[:])
}

func (r *redisRevocationRepository) Add(ctx context.Context, token string, expiresAt time.Time) (err error) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	ctx, done := r.inst.start(ctx, "set")
	defer func() { done(err) }()

	if err = r.rdb.Set(ctx, blacklistKey(token), expiresAt.UTC().Unix(), ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *redisRevocationRepository) Contains(ctx context.Context, token string) (_ bool, err error) {
	ctx, done := r.inst.start(ctx, "exists")
	defer func() { done(err) }()

	n, err := r.rdb.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

// PruneExpired is a no-op: Redis expires each key with its token.
func (r *redisRevocationRepository) PruneExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
