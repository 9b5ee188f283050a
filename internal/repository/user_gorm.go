package repository

import (
	"context"
	"errors"
	"time"

	"postblog/internal/models"

	"gorm.io/gorm"
)

// userRecord is the SQL row for a user. Posts live in their own table keyed
// by (user_id, post_id) and are always loaded with their owner.
type userRecord struct {
	ID             uint         `gorm:"primaryKey"`
	Username       string       `gorm:"size:50;not null;uniqueIndex"`
	HashedPassword string       `gorm:"not null"`
	FullName       *string      `gorm:"size:100"`
	Posts          []postRecord `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
}

func (userRecord) TableName() string { return "users" }

type postRecord struct {
	ID          uint    `gorm:"primaryKey"`
	UserID      uint    `gorm:"not null;uniqueIndex:idx_user_post"`
	PostID      string  `gorm:"size:24;not null;uniqueIndex:idx_user_post;index"`
	Title       *string `gorm:"type:text"`
	Description *string `gorm:"type:text"`
	Author      string  `gorm:"size:50;not null"`
	CreatedAt   time.Time
}

func (postRecord) TableName() string { return "posts" }

// SQLSchema lists the tables the SQL backends migrate.
func SQLSchema() []interface{} {
	return []interface{}{&userRecord{}, &postRecord{}, &revokedTokenRecord{}}
}

func (r userRecord) toModel() models.User {
	posts := make([]models.Post, 0, len(r.Posts))
	for _, p := range r.Posts {
		posts = append(posts, p.toModel())
	}
	return models.User{
		Username:       r.Username,
		HashedPassword: r.HashedPassword,
		FullName:       r.FullName,
		Posts:          posts,
	}
}

func (p postRecord) toModel() models.Post {
	return models.Post{
		PostID:      p.PostID,
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Author,
	}
}

type gormUserRepository struct {
	db   *gorm.DB
	inst instrument
}

// NewGormUserRepository returns a UserRepository backed by a SQL database.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db, inst: newInstrument(db.Dialector.Name(), "users")}
}

func orderedPosts(db *gorm.DB) *gorm.DB {
	return db.Order("posts.id ASC")
}

func (r *gormUserRepository) userIDQuery(ctx context.Context, username string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&userRecord{}).Select("id").Where("username = ?", username)
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := r.inst.start(ctx, "insert")
	defer func() { done(err) }()

	rec := userRecord{
		Username:       user.Username,
		HashedPassword: user.HashedPassword,
		FullName:       user.FullName,
	}
	if err = r.db.WithContext(ctx).Omit("Posts").Create(&rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateUsername
		}
		return models.NewInternalError(err)
	}

	for _, p := range user.Posts {
		if _, err = r.AppendPost(ctx, user.Username, p); err != nil {
			return err
		}
	}
	user.Posts = user.PostsOrEmpty()
	return nil
}

func (r *gormUserRepository) GetByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	ctx, done := r.inst.start(ctx, "find_one")
	defer func() { done(err) }()

	var rec userRecord
	if err = r.db.WithContext(ctx).
		Preload("Posts", orderedPosts).
		Where("username = ?", username).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	user := rec.toModel()
	return &user, nil
}

func (r *gormUserRepository) AppendPost(ctx context.Context, username string, post models.Post) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "push_post")
	defer func() { done(err) }()

	var owner userRecord
	if err = r.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, models.NewInternalError(err)
	}

	rec := postRecord{
		UserID:      owner.ID,
		PostID:      post.PostID,
		Title:       post.Title,
		Description: post.Description,
		Author:      post.Author,
	}
	res := r.db.WithContext(ctx).Create(&rec)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormUserRepository) UpdatePost(ctx context.Context, username, postID string, patch models.PostPatch) (_ int64, err error) {
	if patch.IsEmpty() {
		return 0, models.ErrEmptyUpdate
	}

	ctx, done := r.inst.start(ctx, "set_post")
	defer func() { done(err) }()

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	res := r.db.WithContext(ctx).Model(&postRecord{}).
		Where("post_id = ? AND user_id = (?)", postID, r.userIDQuery(ctx, username)).
		Updates(updates)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormUserRepository) RemovePost(ctx context.Context, username, postID string) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "pull_post")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = (?)", postID, r.userIDQuery(ctx, username)).
		Delete(&postRecord{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormUserRepository) List(ctx context.Context) (_ []models.User, err error) {
	ctx, done := r.inst.start(ctx, "find")
	defer func() { done(err) }()

	var recs []userRecord
	if err = r.db.WithContext(ctx).Preload("Posts", orderedPosts).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return toUserModels(recs), nil
}

func (r *gormUserRepository) FindPostOwners(ctx context.Context, postID string, limit int) (_ []models.User, err error) {
	ctx, done := r.inst.start(ctx, "find_post_owner")
	defer func() { done(err) }()

	owners := r.db.WithContext(ctx).Model(&postRecord{}).Select("user_id").Where("post_id = ?", postID)
	q := r.db.WithContext(ctx).Preload("Posts", orderedPosts).Where("id IN (?)", owners).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []userRecord
	if err = q.Find(&recs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return toUserModels(recs), nil
}

func (r *gormUserRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toUserModels(recs []userRecord) []models.User {
	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.toModel())
	}
	return users
}
