package repository

import (
	"context"
	"time"

	"postblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type revokedTokenRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (revokedTokenRecord) TableName() string { return "blacklist" }

type gormRevocationRepository struct {
	db   *gorm.DB
	inst instrument
}

// NewGormRevocationRepository returns a RevocationRepository backed by the blacklist table.
func NewGormRevocationRepository(db *gorm.DB) RevocationRepository {
	return &gormRevocationRepository{db: db, inst: newInstrument(db.Dialector.Name(), "blacklist")}
}

func (r *gormRevocationRepository) Add(ctx context.Context, token string, expiresAt time.Time) (err error) {
	ctx, done := r.inst.start(ctx, "insert")
	defer func() { done(err) }()

	rec := revokedTokenRecord{Token: token, ExpiresAt: expiresAt.UTC()}
	if err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&rec).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *gormRevocationRepository) Contains(ctx context.Context, token string) (_ bool, err error) {
	ctx, done := r.inst.start(ctx, "find_one")
	defer func() { done(err) }()

	var count int64
	if err = r.db.WithContext(ctx).Model(&revokedTokenRecord{}).Where("token = ?", token).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *gormRevocationRepository) PruneExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, done := r.inst.start(ctx, "delete_expired")
	defer func() { done(err) }()

	res := r.db.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&revokedTokenRecord{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
