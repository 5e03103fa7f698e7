// Package storage persists snapshots and anomalies in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/haskel/hostwatch/internal/metrics"
)

const (
	MemoryPath             = ":memory:"
	DefaultRetention       = 30 * 24 * time.Hour
	DefaultCleanupInterval = time.Hour
	sqlitePragmas          = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

var ErrNotFound = errors.New("not found")

// Store is an append-only log of snapshots and anomalies with time range
// queries and periodic retention cleanup.
type Store struct {
	db              *gorm.DB
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

type Options struct {
	Path            string
	Retention       time.Duration
	CleanupInterval time.Duration
}

// Open creates the database file and its parent directory if needed and
// migrates the schema.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	dsn := opts.Path
	if dsn == "" {
		dsn = MemoryPath
	}
	if dsn != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += sqlitePragmas
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database handle: %w", err)
	}
	// :memory: databases exist per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&MetricsRecord{}, &AnomalyRecord{}, &Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}

	logger.Info("storage opened", "path", opts.Path, "retention", opts.Retention)

	return &Store{
		db:              db,
		retention:       opts.Retention,
		cleanupInterval: opts.CleanupInterval,
		logger:          logger,
		done:            make(chan struct{}),
	}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StoreMetrics inserts snap once and returns its row id. Callers must not
// retry on error, as a retry may duplicate the row.
func (s *Store) StoreMetrics(ctx context.Context, snap *metrics.Snapshot) (int64, error) {
	rec := newMetricsRecord(snap)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("insert metrics: %w", err)
	}
	return rec.ID, nil
}

func (s *Store) StoreAnomaly(ctx context.Context, a metrics.Anomaly) (int64, error) {
	rec := newAnomalyRecord(a)
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("insert anomaly: %w", err)
	}
	return rec.ID, nil
}

// MetricsRange returns snapshots in [start, end], oldest first.
func (s *Store) MetricsRange(ctx context.Context, start, end time.Time, limit int) ([]*metrics.Snapshot, error) {
	var recs []MetricsRecord
	q := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start.UTC(), end.UTC()).
		Order("timestamp asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	return snapshots(recs), nil
}

// AnomaliesRange returns anomalies in [start, end], newest first. An empty
// severity matches all.
func (s *Store) AnomaliesRange(ctx context.Context, start, end time.Time, severity metrics.Severity, limit int) ([]metrics.Anomaly, error) {
	var recs []AnomalyRecord
	q := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start.UTC(), end.UTC())
	if severity != "" {
		q = q.Where("severity = ?", string(severity))
	}
	q = q.Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	return anomalies(recs), nil
}

// RecentMetrics returns up to limit of the newest snapshots, oldest first.
func (s *Store) RecentMetrics(ctx context.Context, limit int) ([]*metrics.Snapshot, error) {
	var recs []MetricsRecord
	if err := s.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query recent metrics: %w", err)
	}
	slices.Reverse(recs)
	return snapshots(recs), nil
}

// RecentAnomalies returns up to limit of the newest anomalies, newest first.
func (s *Store) RecentAnomalies(ctx context.Context, limit int) ([]metrics.Anomaly, error) {
	var recs []AnomalyRecord
	if err := s.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query recent anomalies: %w", err)
	}
	return anomalies(recs), nil
}

func (s *Store) AnomalyByID(ctx context.Context, id string) (metrics.Anomaly, error) {
	var rec AnomalyRecord
	err := s.db.WithContext(ctx).Where("anomaly_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return metrics.Anomaly{}, ErrNotFound
	}
	if err != nil {
		return metrics.Anomaly{}, fmt.Errorf("query anomaly: %w", err)
	}
	return rec.Anomaly(), nil
}

// Cleanup deletes rows older than retention and reports how many went.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	m := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&MetricsRecord{})
	if m.Error != nil {
		return 0, 0, fmt.Errorf("cleanup metrics: %w", m.Error)
	}
	a := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&AnomalyRecord{})
	if a.Error != nil {
		return m.RowsAffected, 0, fmt.Errorf("cleanup anomalies: %w", a.Error)
	}
	return m.RowsAffected, a.RowsAffected, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Save(&Setting{Key: key, Value: value, UpdatedAt: time.Now()}).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var setting Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	return setting.Value, nil
}

// Start runs retention cleanup once and then every cleanup interval.
func (s *Store) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.cleanupLoop(ctx)
}

// Stop halts the cleanup loop and closes the database.
func (s *Store) Stop() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return s.Close()
}

func (s *Store) cleanupLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	s.runCleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCleanup(ctx)
		}
	}
}

func (s *Store) runCleanup(ctx context.Context) {
	m, a, err := s.Cleanup(ctx, s.retention)
	if err != nil {
		s.logger.Error("retention cleanup failed", "error", err)
		return
	}
	if m > 0 || a > 0 {
		s.logger.Info("retention cleanup", "metrics_deleted", m, "anomalies_deleted", a)
	}
}

func snapshots(recs []MetricsRecord) []*metrics.Snapshot {
	return lo.Map(recs, func(r MetricsRecord, _ int) *metrics.Snapshot {
		return r.Snapshot()
	})
}

func anomalies(recs []AnomalyRecord) []metrics.Anomaly {
	return lo.Map(recs, func(r AnomalyRecord, _ int) metrics.Anomaly {
		return r.Anomaly()
	})
}
