/**
 * @description
 * Repeat-with-delay driver for operator-triggered collections.
 * Runs a fixed number of rounds against one source (or all of them) and
 * reports progress to a writer.
 *
 * @dependencies
 * - backend/internal/services
 *
 * @notes
 * - A failing round is reported and the loop moves on.
 * - The delay is slept between rounds even after a failure; ctx cancels it.
 */

package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
)

// SourceAll selects every source type.
const SourceAll = "all"

// Collector is the part of services.CollectionService the schedulers drive.
type Collector interface {
	CollectSource(ctx context.Context, sourceType models.SourceType) (int, error)
	CollectAll(ctx context.Context) (services.CollectionReport, error)
}

// Runner executes collection rounds.
type Runner struct {
	collector Collector
	out       io.Writer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewRunner(collector Collector, out io.Writer) *Runner {
	return &Runner{
		collector: collector,
		out:       out,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// ParseSource validates a source selector: a source type or "all".
func ParseSource(source string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(source))
	if s == SourceAll {
		return SourceAll, nil
	}
	st, err := models.ParseSourceType(s)
	if err != nil {
		return "", fmt.Errorf("invalid source %q: must be one of crypto, stock, weather, currency, all", source)
	}
	return st.String(), nil
}

// Run performs repeat rounds separated by delay and returns the number of
// data points written across all rounds. It only errors on invalid arguments
// or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, source string, repeat int, delay time.Duration) (int, error) {
	source, err := ParseSource(source)
	if err != nil {
		return 0, err
	}
	if repeat < 1 {
		return 0, fmt.Errorf("repeat must be at least 1, got %d", repeat)
	}
	if delay < 0 {
		return 0, fmt.Errorf("delay must not be negative, got %s", delay)
	}

	r.printf("Starting data collection at %s\n", r.now().Format(time.RFC3339))

	total := 0
	for i := 1; i <= repeat; i++ {
		if repeat > 1 {
			r.printf("\nCollection round %d/%d\n", i, repeat)
		}

		count, err := r.round(ctx, source)
		total += count
		if err != nil {
			r.printf("Error during collection: %v\n", err)
			logger.Error("Collection round %d/%d failed: %v", i, repeat, err)
		}

		if i < repeat && delay > 0 {
			r.printf("Waiting %d seconds before next collection...\n", int(delay/time.Second))
			if err := r.sleep(ctx, delay); err != nil {
				r.printf("\nCollection interrupted. Total data points collected: %d\n", total)
				return total, err
			}
		}
	}

	r.printf("\nData collection completed. Total data points collected: %d\n", total)
	return total, nil
}

// round collects once. Partial results of an "all" round still count.
func (r *Runner) round(ctx context.Context, source string) (int, error) {
	if source == SourceAll {
		report, err := r.collector.CollectAll(ctx)
		for _, res := range report.Results {
			if res.Err == nil {
				r.printf("  %s: %d data points\n", res.SourceType, res.Count)
			}
		}
		if report.Total > 0 || err == nil {
			r.printf("Successfully collected %d data points\n", report.Total)
		}
		return report.Total, err
	}

	count, err := r.collector.CollectSource(ctx, models.SourceType(source))
	if err != nil {
		return 0, err
	}
	r.printf("Successfully collected %d %s data points\n", count, source)
	return count, nil
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
