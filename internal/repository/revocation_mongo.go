package repository

import (
	"context"
	"fmt"
	"time"

	"postblog/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlacklistCollection holds revoked tokens.
const BlacklistCollection = "blacklist"

type mongoRevocationRepository struct {
	coll *mongo.Collection
	inst instrument
}

// NewMongoRevocationRepository returns a RevocationRepository backed by the blacklist collection of db.
func NewMongoRevocationRepository(db *mongo.Database) RevocationRepository {
	return &mongoRevocationRepository{
		coll: db.Collection(BlacklistCollection),
		inst: newInstrument("mongodb", BlacklistCollection),
	}
}

// EnsureRevocationIndexes creates the unique token index and a TTL index so
// the server drops entries once they expire.
func EnsureRevocationIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(BlacklistCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("token_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("create blacklist indexes: %w", err)
	}
	return nil
}

func (r *mongoRevocationRepository) Add(ctx context.Context, token string, expiresAt time.Time) (err error) {
	ctx, done := r.inst.start(ctx, "upsert")
	defer func() { done(err) }()

	entry := models.RevokedToken{Token: token, ExpiresAt: expiresAt.UTC()}
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$setOnInsert": entry},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// A concurrent upsert of the same token loses the race on the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mongoRevocationRepository) Contains(ctx context.Context, token string) (_ bool, err error) {
	ctx, done := r.inst.start(ctx, "count")
	defer func() { done(err) }()

	count, err := r.coll.CountDocuments(ctx, bson.M{"token": token}, options.Count().SetLimit(1))
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *mongoRevocationRepository) PruneExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "delete_expired")
	defer func() { done(err) }()

	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.DeletedCount, nil
}
