package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/datadash-project/backend/internal/logger"
	"github.com/robfig/cron/v3"
)

// DefaultRoundTimeout bounds a single scheduled CollectAll.
const DefaultRoundTimeout = 2 * time.Minute

// CronWorker runs CollectAll on a cron schedule (seconds field enabled).
// Overlapping rounds are skipped rather than queued.
type CronWorker struct {
	Cron      *cron.Cron
	collector Collector
	timeout   time.Duration
}

func NewCronWorker(collector Collector) *CronWorker {
	cronLogger := cron.PrintfLogger(logger.InfoLogger)
	return &CronWorker{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		collector: collector,
		timeout:   DefaultRoundTimeout,
	}
}

// Register adds the collection job on the given cron schedule. Every
// scheduled round derives its deadline from ctx.
func (w *CronWorker) Register(ctx context.Context, spec string) error {
	if _, err := w.Cron.AddFunc(spec, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register collection job %q: %w", spec, err)
	}
	return nil
}

func (w *CronWorker) Start() {
	w.Cron.Start()
	logger.Info("Collection scheduler started")
}

// Stop stops scheduling and waits for a running round to finish.
func (w *CronWorker) Stop() {
	<-w.Cron.Stop().Done()
	logger.Info("Collection scheduler stopped")
}

// RunOnce executes a single CollectAll round.
func (w *CronWorker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.collector.CollectAll(ctx)
	if err != nil {
		logger.Error("Scheduled collection %s finished with errors: %v", report.RoundID, err)
		return
	}
	logger.Info("Scheduled collection %s stored %d data points", report.RoundID, report.Total)
}
