// Package jobs runs periodic maintenance work on a cron schedule.
package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/database"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/robfig/cron/v3"
)

// DefaultBackfillSchedule is used when no GEOCODE_SCHEDULE is configured
const DefaultBackfillSchedule = "@every 30m"

// BackfillJobName identifies the coordinate backfill job
const BackfillJobName = "geocode_backfill"

// Func is one unit of scheduled work
type Func func(ctx context.Context) error

// BackfillRunner geocodes points that are missing coordinates
type BackfillRunner interface {
	BackfillCoordinates(ctx context.Context, limit int) (database.BackfillResult, error)
}

// Scheduler wraps cron.Cron with logging, metrics and a per-run timeout
type Scheduler struct {
	cron    *cron.Cron
	logger  *monitoring.Logger
	metrics *monitoring.Metrics
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]Func
}

// NewScheduler creates a stopped scheduler. Each run is bounded by timeout.
func NewScheduler(logger *monitoring.Logger, metrics *monitoring.Metrics, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = monitoring.NewLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	cl := cronLogger{logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]Func),
	}
}

// Add registers fn under name on the given cron spec
func (s *Scheduler) Add(name, spec string, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(spec, func() { s.run(name, fn) }); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.jobs[name] = fn

	s.logger.Info("Job scheduled", "job", name, "schedule", spec)
	return nil
}

// AddBackfill schedules the geocoding backfill in batches of batchSize
func (s *Scheduler) AddBackfill(spec string, runner BackfillRunner, batchSize int) error {
	if spec == "" {
		spec = DefaultBackfillSchedule
	}

	return s.Add(BackfillJobName, spec, func(ctx context.Context) error {
		result, err := runner.BackfillCoordinates(ctx, batchSize)
		if err != nil {
			return err
		}
		s.logger.Info("Geocoding backfill finished",
			"scanned", result.Scanned,
			"updated", result.Updated,
			"not_found", result.NotFound,
			"failed", result.Failed)
		return nil
	})
}

// RunNow executes a registered job synchronously
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	fn, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("job %s is not registered", name)
	}
	return s.run(name, fn)
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Job scheduler started", "jobs", s.Jobs())
}

// Stop prevents new runs, cancels running ones and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()

	select {
	case <-done.Done():
		s.logger.Info("Job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for jobs to finish: %w", ctx.Err())
	}
}

func (s *Scheduler) run(name string, fn Func) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	// a disabled dependency is not a failure of the job
	if stderrors.Is(err, database.ErrGeocodingDisabled) {
		s.logger.Debug("Job skipped", "job", name, "reason", err.Error())
		return nil
	}

	s.metrics.RecordJobRun(name, err)
	if err != nil {
		s.logger.Error("Job failed", "job", name, "error", err, "duration_ms", duration.Milliseconds())
		return err
	}

	s.logger.Info("Job completed", "job", name, "duration_ms", duration.Milliseconds())
	return nil
}

// cronLogger adapts the structured logger to cron.Logger
type cronLogger struct {
	logger *monitoring.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
