package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/datadash-project/backend/internal/models"
	"github.com/datadash-project/backend/internal/services"
)

// scriptedCollector returns one scripted outcome per call.
type scriptedCollector struct {
	counts  []int
	errs    []error
	calls   int
	sources []models.SourceType
	lastCtx context.Context
}

func (c *scriptedCollector) next() (int, error) {
	i := c.calls
	c.calls++
	return c.counts[i], c.errs[i]
}

func (c *scriptedCollector) CollectSource(_ context.Context, st models.SourceType) (int, error) {
	c.sources = append(c.sources, st)
	count, err := c.next()
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *scriptedCollector) CollectAll(ctx context.Context) (services.CollectionReport, error) {
	c.lastCtx = ctx
	count, err := c.next()
	return services.CollectionReport{Total: count}, err
}

func newTestRunner(c Collector, out *bytes.Buffer) (*Runner, *[]time.Duration) {
	r := NewRunner(c, out)
	r.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return r, &slept
}

func TestRun_ContinuesAfterFailedRound(t *testing.T) {
	c := &scriptedCollector{
		counts: []int{4, 0, 3},
		errs:   []error{nil, errors.New("upstream unavailable"), nil},
	}
	var out bytes.Buffer
	r, slept := newTestRunner(c, &out)

	total, err := r.Run(context.Background(), "crypto", 3, 60*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if c.calls != 3 {
		t.Fatalf("expected 3 rounds, got %d", c.calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 sleeps between 3 rounds, got %d", len(*slept))
	}

	log := out.String()
	for _, want := range []string{
		"Starting data collection at 2024-01-01T00:00:00Z",
		"Collection round 2/3",
		"Error during collection: upstream unavailable",
		"Waiting 60 seconds before next collection...",
		"Total data points collected: 7",
	} {
		if !strings.Contains(log, want) {
			t.Fatalf("expected %q in output:\n%s", want, log)
		}
	}
}

func TestRun_SingleRoundNoDelay(t *testing.T) {
	c := &scriptedCollector{counts: []int{2}, errs: []error{nil}}
	var out bytes.Buffer
	r, slept := newTestRunner(c, &out)

	total, err := r.Run(context.Background(), "all", 1, 60*time.Second)
	if err != nil || total != 2 {
		t.Fatalf("expected total 2, got %d (err %v)", total, err)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no sleep after the last round, got %v", *slept)
	}
	if strings.Contains(out.String(), "Collection round") {
		t.Fatalf("single run should not print round headers:\n%s", out.String())
	}
}

func TestRun_RejectsInvalidArguments(t *testing.T) {
	c := &scriptedCollector{}
	var out bytes.Buffer
	r, _ := newTestRunner(c, &out)

	if _, err := r.Run(context.Background(), "forex", 1, 0); err == nil {
		t.Fatal("expected invalid source to be rejected")
	}
	if _, err := r.Run(context.Background(), "stock", 0, 0); err == nil {
		t.Fatal("expected repeat 0 to be rejected")
	}
	if c.calls != 0 {
		t.Fatalf("collector must not run on invalid arguments, ran %d times", c.calls)
	}
}

func TestRun_NormalizesSource(t *testing.T) {
	c := &scriptedCollector{counts: []int{1}, errs: []error{nil}}
	var out bytes.Buffer
	r, _ := newTestRunner(c, &out)

	if _, err := r.Run(context.Background(), " Weather ", 1, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.sources) != 1 || c.sources[0] != models.SourceWeather {
		t.Fatalf("expected weather collection, got %v", c.sources)
	}
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	c := &scriptedCollector{counts: []int{5, 5}, errs: []error{nil, nil}}
	var out bytes.Buffer
	r := NewRunner(c, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	total, err := r.Run(ctx, "crypto", 2, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if total != 5 || c.calls != 1 {
		t.Fatalf("expected one completed round, got total=%d calls=%d", total, c.calls)
	}
}
