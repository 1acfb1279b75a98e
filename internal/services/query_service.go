/**
 * @description
 * Query and aggregation engine over DataPoints.
 * Serves recent-window listings, chart series and the per-series summary.
 *
 * @dependencies
 * - github.com/shopspring/decimal: exact change arithmetic
 * - github.com/redis/go-redis/v9: optional summary cache
 *
 * @notes
 * - The summary cache is dropped by EventBus.PublishCollected whenever new rows land.
 */

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	DefaultWindowHours = 24
	MaxChartPoints     = 200
	SummaryCacheTTL    = time.Minute
	percentScale       = 2

	// maxWindowHours is the largest window expressible as a time.Duration.
	maxWindowHours = math.MaxInt64 / int64(time.Hour)
)

// ChartPoint is one entry of a chart series.
type ChartPoint struct {
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
	Label     string `json:"label"`
}

// SummaryEntry describes the latest state of one (source_type, symbol) series.
type SummaryEntry struct {
	SourceType       models.SourceType `json:"source_type"`
	Symbol           string            `json:"symbol"`
	CurrentValue     decimal.Decimal   `json:"current_value"`
	Change24h        *decimal.Decimal  `json:"change_24h"`
	Change24hPercent *decimal.Decimal  `json:"change_24h_percent"`
	LastUpdated      time.Time         `json:"last_updated"`
	TotalDataPoints  int64             `json:"total_data_points"`
}

// QueryService answers read queries. cache may be nil.
type QueryService struct {
	points PointReader
	cache  *redis.Client
	now    func() time.Time
}

func NewQueryService(points PointReader, cache *redis.Client) *QueryService {
	return &QueryService{
		points: points,
		cache:  cache,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *QueryService) window(f PointFilter) (PointFilter, time.Time, error) {
	if f.Hours < 0 {
		return f, time.Time{}, fmt.Errorf("%w: hours must be positive", ErrInvalidInput)
	}
	if f.Hours == 0 {
		f.Hours = DefaultWindowHours
	}
	if f.SourceType != "" && !f.SourceType.Valid() {
		return f, time.Time{}, fmt.Errorf("%w: unknown source_type %q", ErrInvalidInput, f.SourceType)
	}
	if int64(f.Hours) > maxWindowHours {
		// Wider than any stored history: no lower bound.
		return f, time.Time{}, nil
	}
	since := s.now().Add(-time.Duration(f.Hours) * time.Hour)
	return f, since, nil
}

// List returns points inside the window, newest first.
func (s *QueryService) List(ctx context.Context, f PointFilter) ([]models.DataPoint, error) {
	f, since, err := s.window(f)
	if err != nil {
		return nil, err
	}
	points, err := s.points.ListPoints(ctx, f, since, 0)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []models.DataPoint{}
	}
	return points, nil
}

// Get returns one point by id.
func (s *QueryService) Get(ctx context.Context, id uint64) (*models.DataPoint, error) {
	return s.points.GetPoint(ctx, id)
}

// ChartSeries returns at most MaxChartPoints of the newest points in the
// window, oldest first.
func (s *QueryService) ChartSeries(ctx context.Context, f PointFilter) ([]ChartPoint, error) {
	f, since, err := s.window(f)
	if err != nil {
		return nil, err
	}
	points, err := s.points.ListPoints(ctx, f, since, MaxChartPoints)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(points, func(i, j int) bool {
		if !points[i].Timestamp.Equal(points[j].Timestamp) {
			return points[i].Timestamp.Before(points[j].Timestamp)
		}
		return points[i].ID < points[j].ID
	})

	series := make([]ChartPoint, 0, len(points))
	for _, p := range points {
		value := p.Value.String()
		series = append(series, ChartPoint{
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
			Value:     value,
			Label:     fmt.Sprintf("%s: %s", p.Symbol, value),
		})
	}
	return series, nil
}

// Summary reports every known series with its 24h change.
func (s *QueryService) Summary(ctx context.Context) ([]SummaryEntry, error) {
	cutoff := s.now().Add(-DefaultWindowHours * time.Hour)
	cutoffMinute := cutoff.Truncate(time.Minute).Unix()
	if cached, ok := s.cachedSummary(ctx, cutoffMinute); ok {
		return cached, nil
	}

	keys, err := s.points.SeriesKeys(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]SummaryEntry, 0, len(keys))
	for _, key := range keys {
		stats, err := s.points.SeriesStats(ctx, key, cutoff)
		if err != nil {
			return nil, fmt.Errorf("summarize %s/%s: %w", key.SourceType, key.Symbol, err)
		}
		if entry, ok := buildSummary(key, stats); ok {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SourceType != entries[j].SourceType {
			return entries[i].SourceType < entries[j].SourceType
		}
		return entries[i].Symbol < entries[j].Symbol
	})

	s.storeSummary(ctx, cutoffMinute, entries)
	return entries, nil
}

func buildSummary(key SeriesKey, stats SeriesStats) (SummaryEntry, bool) {
	if stats.Latest == nil {
		return SummaryEntry{}, false
	}
	entry := SummaryEntry{
		SourceType:      key.SourceType,
		Symbol:          key.Symbol,
		CurrentValue:    stats.Latest.Value,
		LastUpdated:     stats.Latest.Timestamp,
		TotalDataPoints: stats.Count,
	}
	if stats.Baseline == nil {
		return entry, true
	}

	base := stats.Baseline.Value
	change := stats.Latest.Value.Sub(base)
	entry.Change24h = &change
	if !base.IsZero() {
		pct := change.Div(base).Mul(decimal.NewFromInt(100)).Round(percentScale)
		entry.Change24hPercent = &pct
	}
	return entry, true
}

// summaryCacheEntry is keyed to the minute of the 24h cutoff so a baseline
// that ages past the cutoff is not served stale for the whole TTL.
type summaryCacheEntry struct {
	CutoffMinute int64          `json:"cutoff_minute"`
	Entries      []SummaryEntry `json:"entries"`
}

func (s *QueryService) cachedSummary(ctx context.Context, cutoffMinute int64) ([]SummaryEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, CacheKeySummary).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("QueryService: summary cache read failed: %v", err)
		}
		return nil, false
	}
	var cached summaryCacheEntry
	if err := json.Unmarshal(raw, &cached); err != nil || cached.CutoffMinute != cutoffMinute {
		return nil, false
	}
	return cached.Entries, true
}

func (s *QueryService) storeSummary(ctx context.Context, cutoffMinute int64, entries []SummaryEntry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summaryCacheEntry{CutoffMinute: cutoffMinute, Entries: entries})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKeySummary, raw, SummaryCacheTTL).Err(); err != nil {
		logger.Warn("QueryService: summary cache write failed: %v", err)
	}
}
