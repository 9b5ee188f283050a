package repository

import (
	"context"
	"errors"
	"fmt"

	"postblog/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// UsersCollection holds one document per user with posts embedded.
const UsersCollection = "users"

type mongoUserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
	inst instrument
}

// NewMongoUserRepository returns a UserRepository backed by the users collection of db.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		db:   db,
		coll: db.Collection(UsersCollection),
		inst: newInstrument("mongodb", UsersCollection),
	}
}

// EnsureUserIndexes creates the unique username index and the post_id lookup index.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "posts.post_id", Value: 1}},
			Options: options.Index().SetName("posts_post_id"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := r.inst.start(ctx, "insert")
	defer func() { done(err) }()

	doc := *user
	doc.Posts = user.PostsOrEmpty()
	if _, err = r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicateUsername
		}
		return models.NewInternalError(err)
	}
	user.Posts = doc.Posts
	return nil
}

func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	ctx, done := r.inst.start(ctx, "find_one")
	defer func() { done(err) }()

	var user models.User
	if err = r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	user.Posts = user.PostsOrEmpty()
	return &user, nil
}

func (r *mongoUserRepository) AppendPost(ctx context.Context, username string, post models.Post) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "push_post")
	defer func() { done(err) }()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$push": bson.M{"posts": post}},
	)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoUserRepository) UpdatePost(ctx context.Context, username, postID string, patch models.PostPatch) (_ int64, err error) {
	if patch.IsEmpty() {
		return 0, models.ErrEmptyUpdate
	}

	ctx, done := r.inst.start(ctx, "set_post")
	defer func() { done(err) }()

	set := bson.M{}
	if patch.Title != nil {
		set["posts.$.title"] = *patch.Title
	}
	if patch.Description != nil {
		set["posts.$.description"] = *patch.Description
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username, "posts.post_id": postID},
		bson.M{"$set": set},
	)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.MatchedCount, nil
}

func (r *mongoUserRepository) RemovePost(ctx context.Context, username, postID string) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "pull_post")
	defer func() { done(err) }()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$pull": bson.M{"posts": bson.M{"post_id": postID}}},
	)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoUserRepository) List(ctx context.Context) (_ []models.User, err error) {
	ctx, done := r.inst.start(ctx, "find")
	defer func() { done(err) }()

	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoUserRepository) FindPostOwners(ctx context.Context, postID string, limit int) (_ []models.User, err error) {
	ctx, done := r.inst.start(ctx, "find_post_owner")
	defer func() { done(err) }()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"posts.post_id": postID}, opts)
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return normalizePosts(users), nil
}

func (r *mongoUserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
