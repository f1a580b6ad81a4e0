package database

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"bestdeal/server/internal/models"
)

// Store persists the lowest verified price per (product, site) pair.
type Store struct {
	db *gorm.DB
}

// NewStore opens the sqlite database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}

	if err := MigrateSchema(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// GetBest returns the stored best price for the pair, or nil when no record
// exists yet.
func (s *Store) GetBest(product, site string) (*float64, error) {
	var record models.ProductRecord
	err := s.db.Where("name = ? AND site = ?", product, site).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record.Price, nil
}

// Upsert inserts or replaces the record for its (name, site) pair. The caller
// decides whether the write is warranted; the store only guarantees the pair
// stays unique.
func (s *Store) Upsert(record *models.ProductRecord) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "site"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "url", "updated_at"}),
	}).Create(record).Error
}

// GetRecords lists all stored records ordered by product name, then site.
func (s *Store) GetRecords() ([]models.ProductRecord, error) {
	var records []models.ProductRecord
	err := s.db.Order("name, site").Find(&records).Error
	return records, err
}

// GetSummary aggregates the stored records per product: best price across
// sites, average price, and the number of sites carrying the product.
// Products with the most recent updates come first.
func (s *Store) GetSummary() ([]models.ProductSummary, error) {
	var summaries []models.ProductSummary
	err := s.db.Model(&models.ProductRecord{}).
		Select("name, MIN(price) AS best_price, AVG(price) AS avg_price, COUNT(*) AS sites").
		Group("name").
		Order("MAX(updated_at) DESC").
		Scan(&summaries).Error
	return summaries, err
}

// ClearRecords deletes every stored record.
func (s *Store) ClearRecords() error {
	return s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ProductRecord{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
