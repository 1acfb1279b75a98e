/**
 * @description
 * Collection orchestrator.
 * Turns fetcher readings into DataPoints, persists them idempotently and
 * reports how many new rows each source produced.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup: runs the sources of one round concurrently
 * - github.com/google/uuid: round ids
 * - backend/internal/integrations
 *
 * @notes
 * - Every source is its own failure domain. A failing or panicking source
 *   never stops the others.
 * - All points of one batch share one timestamp, so re-running within the same
 *   instant writes nothing new.
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/datadash-project/backend/internal/integrations"
	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SourceToucher records that a source type produced fresh data.
type SourceToucher interface {
	TouchLastUpdated(ctx context.Context, sourceType models.SourceType, at time.Time) error
}

// SourceResult is the outcome of one source within a round.
type SourceResult struct {
	SourceType models.SourceType `json:"source_type"`
	Count      int               `json:"count"`
	Err        error             `json:"-"`
}

// CollectionReport summarizes one CollectAll round.
type CollectionReport struct {
	RoundID uuid.UUID      `json:"round_id"`
	Results []SourceResult `json:"results"`
	Total   int            `json:"total"`
}

// CollectionService drives fetchers and persists their readings.
type CollectionService struct {
	points   PointWriter
	sources  SourceToucher
	events   *EventBus
	fetchers map[models.SourceType]integrations.Fetcher
	now      func() time.Time
}

// NewCollectionService wires the orchestrator. sources and events may be nil.
func NewCollectionService(points PointWriter, sources SourceToucher, events *EventBus, fetchers ...integrations.Fetcher) *CollectionService {
	byType := make(map[models.SourceType]integrations.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byType[f.SourceType()] = f
	}
	return &CollectionService{
		points:   points,
		sources:  sources,
		events:   events,
		fetchers: byType,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CollectSource fetches one source type and stores its readings.
// It returns the number of rows actually written.
func (s *CollectionService) CollectSource(ctx context.Context, sourceType models.SourceType) (int, error) {
	return s.collect(ctx, uuid.New(), sourceType)
}

// CollectAll collects every configured source type concurrently.
// The returned error joins the per-source failures; the report is always usable.
func (s *CollectionService) CollectAll(ctx context.Context) (CollectionReport, error) {
	report := CollectionReport{RoundID: uuid.New()}
	types := s.sourceTypes()
	results := make([]SourceResult, len(types))

	var g errgroup.Group
	for i, st := range types {
		g.Go(func() error {
			count, err := s.collect(ctx, report.RoundID, st)
			results[i] = SourceResult{SourceType: st, Count: count, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		report.Total += r.Count
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.SourceType, r.Err))
		}
	}
	report.Results = results

	logger.WithFields(logger.Fields{
		"round_id": report.RoundID.String(),
		"total":    report.Total,
		"failed":   len(errs),
	}).Info("Collection round finished")

	return report, errors.Join(errs...)
}

func (s *CollectionService) sourceTypes() []models.SourceType {
	types := make([]models.SourceType, 0, len(s.fetchers))
	for st := range s.fetchers {
		types = append(types, st)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (s *CollectionService) collect(ctx context.Context, roundID uuid.UUID, sourceType models.SourceType) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			count = 0
			err = fmt.Errorf("collector panic: %v", r)
			logger.Error("CollectionService: %s collector panicked: %v", sourceType, r)
		}
	}()

	if !sourceType.Valid() {
		return 0, fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, sourceType)
	}
	fetcher, ok := s.fetchers[sourceType]
	if !ok {
		return 0, fmt.Errorf("no fetcher configured for %s", sourceType)
	}

	readings := fetcher.Fetch(ctx)
	if len(readings) == 0 {
		return 0, nil
	}

	collectedAt := s.now().UTC().Truncate(time.Microsecond)
	points, err := buildPoints(sourceType, collectedAt, readings)
	if err != nil {
		return 0, err
	}

	written, err := s.points.InsertIgnoringDuplicates(ctx, points)
	if err != nil {
		return 0, fmt.Errorf("store %s points: %w", sourceType, err)
	}
	if skipped := len(points) - written; skipped > 0 {
		logger.Debug("CollectionService: %s skipped %d duplicate points", sourceType, skipped)
	}

	logger.WithFields(logger.Fields{
		"round_id":    roundID.String(),
		"source_type": string(sourceType),
		"count":       written,
	}).Info("Collected data points")

	if written > 0 {
		s.afterWrite(ctx, roundID, sourceType, written, collectedAt)
	}
	return written, nil
}

// afterWrite does the bookkeeping that must not fail a collection.
func (s *CollectionService) afterWrite(ctx context.Context, roundID uuid.UUID, sourceType models.SourceType, count int, at time.Time) {
	if s.sources != nil {
		if err := s.sources.TouchLastUpdated(ctx, sourceType, at); err != nil {
			logger.Warn("CollectionService: failed to stamp last_updated for %s: %v", sourceType, err)
		}
	}
	ev := CollectionEvent{
		RoundID:     roundID.String(),
		SourceType:  sourceType,
		Count:       count,
		CollectedAt: at,
	}
	if err := s.events.PublishCollected(ctx, ev); err != nil {
		logger.Warn("CollectionService: %v", err)
	}
}

func buildPoints(sourceType models.SourceType, at time.Time, readings []integrations.Reading) ([]models.DataPoint, error) {
	points := make([]models.DataPoint, 0, len(readings))
	for _, r := range readings {
		meta, err := models.EncodeMetadata(r.Metadata)
		if err != nil {
			return nil, err
		}
		points = append(points, models.DataPoint{
			Timestamp:  at,
			Value:      r.Value.Round(models.ValueScale),
			SourceType: sourceType,
			Symbol:     r.Symbol,
			Metadata:   meta,
		})
	}
	return points, nil
}
