package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/datadash-project/backend/internal/models"
)

type naturalKey struct {
	ts         int64
	sourceType models.SourceType
	symbol     string
}

// MemoryStore is an in-process PointStore with the same natural-key
// semantics as the Postgres table. Used for dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	points []models.DataPoint
	keys   map[naturalKey]struct{}
	nextID uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[naturalKey]struct{})}
}

func (m *MemoryStore) InsertIgnoringDuplicates(_ context.Context, points []models.DataPoint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	written := 0
	for _, p := range points {
		k := naturalKey{ts: p.Timestamp.UnixNano(), sourceType: p.SourceType, symbol: p.Symbol}
		if _, dup := m.keys[k]; dup {
			continue
		}
		m.keys[k] = struct{}{}
		m.nextID++
		p.ID = m.nextID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		m.points = append(m.points, p)
		written++
	}
	return written, nil
}

func (m *MemoryStore) ListPoints(_ context.Context, f PointFilter, since time.Time, limit int) ([]models.DataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.DataPoint
	for _, p := range m.points {
		if p.Timestamp.Before(since) {
			continue
		}
		if f.SourceType != "" && p.SourceType != f.SourceType {
			continue
		}
		if f.Symbol != "" && p.Symbol != f.Symbol {
			continue
		}
		out = append(out, p)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) GetPoint(_ context.Context, id uint64) (*models.DataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.points {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SeriesKeys(_ context.Context) ([]SeriesKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[SeriesKey]struct{})
	var keys []SeriesKey
	for _, p := range m.points {
		k := SeriesKey{SourceType: p.SourceType, Symbol: p.Symbol}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SourceType != keys[j].SourceType {
			return keys[i].SourceType < keys[j].SourceType
		}
		return keys[i].Symbol < keys[j].Symbol
	})
	return keys, nil
}

func (m *MemoryStore) SeriesStats(_ context.Context, key SeriesKey, cutoff time.Time) (SeriesStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats SeriesStats
	for i := range m.points {
		p := m.points[i]
		if p.SourceType != key.SourceType || p.Symbol != key.Symbol {
			continue
		}
		stats.Count++
		if stats.Latest == nil || p.Timestamp.After(stats.Latest.Timestamp) {
			cp := p
			stats.Latest = &cp
		}
		if !p.Timestamp.After(cutoff) && (stats.Baseline == nil || p.Timestamp.After(stats.Baseline.Timestamp)) {
			cp := p
			stats.Baseline = &cp
		}
	}
	return stats, nil
}

// Len reports how many points are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func sortNewestFirst(points []models.DataPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if !points[i].Timestamp.Equal(points[j].Timestamp) {
			return points[i].Timestamp.After(points[j].Timestamp)
		}
		return points[i].ID > points[j].ID
	})
}
