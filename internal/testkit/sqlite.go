// Package testkit holds helpers shared by package tests.
package testkit

import (
	"testing"

	"postblog/internal/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory SQLite database migrated with schema.
// It is closed when the test ends.
func NewSQLiteDB(t *testing.T, schema ...interface{}) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := database.Open(sqlite.Open(dsn), schema...)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite pool: %v", err)
	}
	// One connection keeps shared-cache table locks out of the way.
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
