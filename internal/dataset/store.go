// Package dataset persists and extends the labeled example manifest.
// Every WAV the pipeline writes gets one row here; the augmenter reads
// the manifest back to pick mixing pairs.
package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noisylabs/speechset/internal/catalog"
	"github.com/noisylabs/speechset/pkg/utils"
)

var errStoreNil = errors.New("dataset store is not initialized")

// Example is one labeled WAV on disk plus the provenance needed to
// trace it back to the archive item(s) it came from.
type Example struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Path       string `gorm:"uniqueIndex:idx_examples_path;not null"`
	Label      int    `gorm:"index:idx_examples_label;not null"`
	Category   string `gorm:"index:idx_examples_category"`
	SourceID   string `gorm:"index:idx_examples_source"`
	MixedWith  string
	Augmented  bool `gorm:"index:idx_examples_augmented"`
	Title      string
	Artist     string
	SampleRate int
	DurationMs int64
	SizeBytes  int64
	CreatedAt  time.Time
}

// Store wraps the SQLite manifest database.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens (creating if needed) the manifest database at path and
// migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Example{}); err != nil {
		return nil, fmt.Errorf("failed to migrate manifest schema: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts one example row.
func (s *Store) Add(ex *Example) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	if err := s.DB.Create(ex).Error; err != nil {
		return fmt.Errorf("failed to add example %s: %w", ex.Path, err)
	}
	return nil
}

// AddBatch inserts many example rows in chunks.
func (s *Store) AddBatch(examples []Example) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	if len(examples) == 0 {
		return nil
	}
	if err := s.DB.CreateInBatches(examples, 500).Error; err != nil {
		return fmt.Errorf("failed to add %d examples: %w", len(examples), err)
	}
	return nil
}

// List returns every example ordered by path.
func (s *Store) List() ([]Example, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var examples []Example
	if err := s.DB.Order("path").Find(&examples).Error; err != nil {
		return nil, fmt.Errorf("failed to list examples: %w", err)
	}
	return examples, nil
}

// ByLabel returns every example with the given label, ordered by path.
func (s *Store) ByLabel(label catalog.Label) ([]Example, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var examples []Example
	err := s.DB.Where("label = ?", int(label)).Order("path").Find(&examples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s examples: %w", label, err)
	}
	return examples, nil
}

// Sources returns the non-augmented examples with the given label,
// ordered by path. The augmenter draws its mixing pools from here so
// that mixes never feed back into later mixes.
func (s *Store) Sources(label catalog.Label) ([]Example, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var examples []Example
	err := s.DB.Where("label = ? AND augmented = ?", int(label), false).
		Order("path").Find(&examples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s sources: %w", label, err)
	}
	return examples, nil
}

// HasSource reports whether any non-augmented example from the given
// archive item is already in the manifest.
func (s *Store) HasSource(sourceID string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errStoreNil
	}
	var count int64
	err := s.DB.Model(&Example{}).
		Where("source_id = ? AND augmented = ?", sourceID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check source %s: %w", sourceID, err)
	}
	return count > 0, nil
}

// HasPath reports whether an example with the given path exists.
func (s *Store) HasPath(path string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errStoreNil
	}
	var count int64
	err := s.DB.Model(&Example{}).Where("path = ?", path).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check path %s: %w", path, err)
	}
	return count > 0, nil
}

// CountByLabel returns the number of examples per label value.
func (s *Store) CountByLabel() (map[int]int64, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var rows []struct {
		Label int
		Total int64
	}
	err := s.DB.Model(&Example{}).
		Select("label, count(*) as total").
		Group("label").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count examples: %w", err)
	}
	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.Label] = r.Total
	}
	return counts, nil
}

// CountByCategory returns the number of examples per category tag.
func (s *Store) CountByCategory() (map[string]int64, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var rows []struct {
		Category string
		Total    int64
	}
	err := s.DB.Model(&Example{}).
		Select("category, count(*) as total").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Total
	}
	return counts, nil
}

// DeleteByPath removes the example row for path. Missing rows are not
// an error.
func (s *Store) DeleteByPath(path string) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ?", path).Delete(&Example{}).Error; err != nil {
			return fmt.Errorf("failed to delete example %s: %w", path, err)
		}
		return nil
	})
}
