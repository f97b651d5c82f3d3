package sessions

import (
	"context"

	"warden/internal/infrastructure/metrics"
)

// SweepJob adapts the manager's expiry sweep to the scheduler's batch-job
// contract and refreshes metrics after each run.
type SweepJob struct {
	manager   *Manager
	collector *metrics.Collector
}

// NewSweepJob creates the sweep job. The collector may be nil when metrics
// are not wired, e.g. in tests.
func NewSweepJob(manager *Manager, collector *metrics.Collector) *SweepJob {
	return &SweepJob{
		manager:   manager,
		collector: collector,
	}
}

// Execute runs one sweep cycle and returns the number of sessions reclaimed.
func (j *SweepJob) Execute(ctx context.Context) (int, error) {
	count := j.manager.SweepExpired()

	if j.collector != nil {
		j.collector.AddSwept(count)
		j.collector.SetStats(j.manager.GetStats())
	}
	return count, nil
}
