// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"warden/internal/shared/biztime"
	"warden/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2. Jobs never
// start ticking as a side effect of construction; nothing runs until Start.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterSweepJob registers the session expiry sweep on a fixed interval.
// The interval should be substantially shorter than the session lifetime so
// expired sessions are reclaimed promptly. Singleton mode means a slow run
// causes the next cycle to be skipped rather than stacked, which is safe:
// expired sessions stay rejected by the liveness check even when un-swept.
func (m *SchedulerManager) RegisterSweepJob(sweepJob BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runSweep(ctx, sweepJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("session", "sweep"),
		gocron.WithName("session-sweeper"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered session sweep job", "interval", interval)
	return nil
}

func (m *SchedulerManager) runSweep(ctx context.Context, sweepJob BatchJob) {
	m.logger.Debugw("session sweep started")

	startTime := biztime.NowUTC()

	sweptCount, err := sweepJob.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to sweep expired sessions",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if sweptCount > 0 {
		m.logger.Infow("expired sessions swept",
			"count", sweptCount,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("no expired sessions to sweep",
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
