// Package bootstrap wires storage backends and clients from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"postblog/internal/cache"
	"postblog/internal/config"
	"postblog/internal/database"
	"postblog/internal/middleware"
	"postblog/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Runtime holds the process-wide store handles the server is built on.
type Runtime struct {
	Users       repository.UserRepository
	Revocations repository.RevocationRepository
	Redis       *redis.Client

	closers []func(context.Context) error
}

// OnClose registers fn to run when the runtime is closed. Closers run in reverse order.
func (r *Runtime) OnClose(fn func(context.Context) error) {
	r.closers = append(r.closers, fn)
}

// Close releases every client opened by InitRuntime.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// InitRuntime connects the configured user store, Redis and the revocation store.
// Redis is optional: when it cannot be reached the client is nil and a requested
// redis revocation backend falls back to the user store.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	var storeRevocations repository.RevocationRepository
	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		rt.OnClose(func(ctx context.Context) error { return database.DisconnectMongo(ctx, client) })

		if err := repository.EnsureUserIndexes(ctx, db); err != nil {
			middleware.Logger.Warn("could not ensure user indexes", slog.String("error", err.Error()))
		}
		if err := repository.EnsureRevocationIndexes(ctx, db); err != nil {
			middleware.Logger.Warn("could not ensure blacklist indexes", slog.String("error", err.Error()))
		}

		rt.Users = repository.NewMongoUserRepository(db)
		storeRevocations = repository.NewMongoRevocationRepository(db)

	case config.StorePostgres, config.StoreSQLite:
		db, err := database.Connect(cfg, repository.SQLSchema()...)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.OnClose(func(context.Context) error { return database.Close(db) })

		rt.Users = repository.NewGormUserRepository(db)
		storeRevocations = repository.NewGormRevocationRepository(db)

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}

	rt.Redis = cache.NewClient(cfg.RedisURL)
	if rt.Redis != nil {
		rdb := rt.Redis
		rt.OnClose(func(context.Context) error { return rdb.Close() })
	}

	rt.Revocations = selectRevocations(cfg.RevocationBackend, storeRevocations, rt.Redis)
	return rt, nil
}

func selectRevocations(backend string, store repository.RevocationRepository, rdb *redis.Client) repository.RevocationRepository {
	if backend != config.RevocationRedis {
		return store
	}
	if rdb == nil {
		middleware.Logger.Warn("REVOCATION_BACKEND is redis but redis is unavailable, using the user store")
		return store
	}
	return repository.NewRedisRevocationRepository(rdb)
}
