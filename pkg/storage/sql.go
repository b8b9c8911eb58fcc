package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const positionRowID = 1

// positionRow is the single row holding the recorded trade
type positionRow struct {
	ID         uint `gorm:"primaryKey"`
	Status     string
	Price      float64
	RecordedAt time.Time
}

func (positionRow) TableName() string {
	return "positions"
}

// SQLStorage implements core.PositionStore using a SQL database via GORM
type SQLStorage struct {
	db *gorm.DB
}

// FromSQLite opens (or creates) a SQLite database file
func FromSQLite(path string) (*SQLStorage, error) {
	return FromSQL(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// FromSQL creates a new SQL storage instance for any GORM dialect
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// one writer, one reader
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&positionRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

func (s *SQLStorage) RecordPosition(ctx context.Context, side core.Side, price float64) error {
	p, err := core.NewPosition(side, price, time.Now())
	if err != nil {
		return err
	}

	row := positionRow{
		ID:         positionRowID,
		Status:     string(p.Side),
		Price:      p.Price,
		RecordedAt: p.RecordedAt.UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to store position: %w", result.Error)
	}

	return nil
}

func (s *SQLStorage) Position(ctx context.Context) (*core.Position, error) {
	var row positionRow
	result := s.db.WithContext(ctx).First(&row, positionRowID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to read position: %w", result.Error)
	}

	p := core.Position{Side: core.Side(row.Status), Price: row.Price, RecordedAt: row.RecordedAt}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored position: %w", err)
	}

	return &p, nil
}

// Close releases the underlying connection pool
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
