/**
 * @description
 * Storage contracts for DataPoints and their GORM/Postgres implementation.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 *
 * @notes
 * - Inserts use ON CONFLICT DO NOTHING; the natural-key index turns a repeated
 *   (timestamp, source_type, symbol) into a silent no-op.
 */

package services

import (
	"context"
	"errors"
	"time"

	"github.com/datadash-project/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointFilter narrows DataPoint queries. Zero values mean "no filter";
// Hours of 0 means DefaultWindowHours.
type PointFilter struct {
	SourceType models.SourceType
	Symbol     string
	Hours      int
}

// SeriesKey identifies one (source_type, symbol) series.
type SeriesKey struct {
	SourceType models.SourceType `gorm:"column:source_type"`
	Symbol     string            `gorm:"column:symbol"`
}

// SeriesStats is what Summary needs to know about one series.
type SeriesStats struct {
	Latest   *models.DataPoint
	Baseline *models.DataPoint // newest point at or before the cutoff
	Count    int64
}

// PointWriter persists DataPoints, absorbing natural-key duplicates.
// It returns how many rows were actually written.
type PointWriter interface {
	InsertIgnoringDuplicates(ctx context.Context, points []models.DataPoint) (int, error)
}

// PointReader answers DataPoint queries.
type PointReader interface {
	// ListPoints returns points with timestamp >= since, newest first.
	// limit <= 0 means unlimited.
	ListPoints(ctx context.Context, f PointFilter, since time.Time, limit int) ([]models.DataPoint, error)
	GetPoint(ctx context.Context, id uint64) (*models.DataPoint, error)
	SeriesKeys(ctx context.Context) ([]SeriesKey, error)
	SeriesStats(ctx context.Context, key SeriesKey, cutoff time.Time) (SeriesStats, error)
}

// PointStore is both sides.
type PointStore interface {
	PointWriter
	PointReader
}

// GormPointStore is the Postgres-backed PointStore.
type GormPointStore struct {
	DB *gorm.DB
}

func NewGormPointStore(db *gorm.DB) *GormPointStore {
	return &GormPointStore{DB: db}
}

func (s *GormPointStore) InsertIgnoringDuplicates(ctx context.Context, points []models.DataPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&points)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *GormPointStore) ListPoints(ctx context.Context, f PointFilter, since time.Time, limit int) ([]models.DataPoint, error) {
	q := s.DB.WithContext(ctx).Where("timestamp >= ?", since)
	if f.SourceType != "" {
		q = q.Where("source_type = ?", f.SourceType)
	}
	if f.Symbol != "" {
		q = q.Where("symbol = ?", f.Symbol)
	}
	q = q.Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var points []models.DataPoint
	if err := q.Find(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

func (s *GormPointStore) GetPoint(ctx context.Context, id uint64) (*models.DataPoint, error) {
	var p models.DataPoint
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormPointStore) SeriesKeys(ctx context.Context) ([]SeriesKey, error) {
	var keys []SeriesKey
	err := s.DB.WithContext(ctx).
		Model(&models.DataPoint{}).
		Distinct("source_type", "symbol").
		Order("source_type, symbol").
		Scan(&keys).Error
	return keys, err
}

func (s *GormPointStore) SeriesStats(ctx context.Context, key SeriesKey, cutoff time.Time) (SeriesStats, error) {
	var stats SeriesStats
	series := func() *gorm.DB {
		return s.DB.WithContext(ctx).
			Model(&models.DataPoint{}).
			Where("source_type = ? AND symbol = ?", key.SourceType, key.Symbol)
	}

	var latest []models.DataPoint
	if err := series().Order("timestamp DESC").Limit(1).Find(&latest).Error; err != nil {
		return stats, err
	}
	if len(latest) == 0 {
		return stats, nil
	}
	stats.Latest = &latest[0]

	var baseline []models.DataPoint
	if err := series().Where("timestamp <= ?", cutoff).Order("timestamp DESC").Limit(1).Find(&baseline).Error; err != nil {
		return stats, err
	}
	if len(baseline) > 0 {
		stats.Baseline = &baseline[0]
	}

	if err := series().Count(&stats.Count).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
