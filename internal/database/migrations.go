package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bestdeal/server/internal/models"
)

// MigrateSchema creates or updates the product_records table, including the
// unique index on (name, site).
func MigrateSchema(db *gorm.DB) error {
	return db.AutoMigrate(&models.ProductRecord{})
}

// NewTestDB opens an in-memory sqlite database for tests.
func NewTestDB() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// NewTestStore wraps an in-memory database in a migrated Store.
func NewTestStore() (*Store, error) {
	db, err := NewTestDB()
	if err != nil {
		return nil, err
	}
	if err := MigrateSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}
