package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"postblog/internal/config"
	"postblog/internal/middleware"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo creates the process-wide Mongo client and returns the configured database.
// Connecting is lazy: an unreachable server is logged here and surfaces on first use.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.MongoTimeout()
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		middleware.Logger.Warn("MongoDB not reachable at startup, continuing",
			slog.String("database", cfg.MongoDatabase),
			slog.String("error", err.Error()),
		)
	} else {
		middleware.Logger.Info("MongoDB connected successfully", slog.String("database", cfg.MongoDatabase))
	}

	return client, client.Database(cfg.MongoDatabase), nil
}

// DisconnectMongo closes the client's connection pool.
func DisconnectMongo(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
