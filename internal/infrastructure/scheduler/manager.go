// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/argus-sec/argus/internal/shared/logger"
)

// ReconcileJob runs one reconciliation pass and reports how many findings it
// processed.
type ReconcileJob interface {
	Name() string
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager manages the periodic reconciliation runs using gocron v2.
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

// RegisterReconcileJobs registers the periodic reconciliation pass. The jobs
// run sequentially in registration order so vulnerability findings are
// reconciled before port and host state.
func (m *SchedulerManager) RegisterReconcileJobs(interval time.Duration, jobs ...ReconcileJob) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runReconcilePass(ctx, jobs)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("reconcile"),
		gocron.WithName("reconcile-pass"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconcile jobs", "interval", interval, "job_count", len(jobs))
	return nil
}

func (m *SchedulerManager) runReconcilePass(ctx context.Context, jobs []ReconcileJob) {
	m.logger.Debugw("reconcile pass started")

	for _, job := range jobs {
		startTime := time.Now()
		count, err := job.Execute(ctx)
		if err != nil {
			m.logger.Errorw("reconcile job failed",
				"job", job.Name(),
				"error", err,
				"duration", time.Since(startTime),
			)
			continue
		}
		m.logger.Infow("reconcile job completed",
			"job", job.Name(),
			"findings", count,
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
