package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNoRecord = errors.New("no hash recorded")

// Store is the hash ledger: every digest computed for a mod, newest last.
type Store struct {
	db *gorm.DB
}

// zapWriter routes gorm's log lines into a sugared zap logger.
type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

// Open opens (creating if needed) the SQLite ledger at path and migrates
// its schema.
func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	newLogger := gormlogger.New(
		zapWriter{log: log.Named("gorm")},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(gormlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("open hash database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&HashRecord{}); err != nil {
		return nil, fmt.Errorf("migrate hash database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record appends rec to the ledger and fills its ID and timestamps.
func (s *Store) Record(ctx context.Context, rec *HashRecord) error {
	if rec.ModName == "" {
		return errors.New("hash record without mod name")
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record hash for %q: %w", rec.ModName, err)
	}
	return nil
}

// Latest returns the newest record for the named mod, or ErrNoRecord.
func (s *Store) Latest(ctx context.Context, name string) (*HashRecord, error) {
	var rec HashRecord
	err := s.db.WithContext(ctx).
		Where("mod_name = ?", name).
		Order("id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w for %q", ErrNoRecord, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest hash for %q: %w", name, err)
	}
	return &rec, nil
}

// History returns up to limit records for the named mod, newest first.
// A limit of zero or less returns them all.
func (s *Store) History(ctx context.Context, name string, limit int) ([]HashRecord, error) {
	q := s.db.WithContext(ctx).Where("mod_name = ?", name).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []HashRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query hash history for %q: %w", name, err)
	}
	return recs, nil
}
