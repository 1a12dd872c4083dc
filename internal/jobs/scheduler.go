// Package jobs runs named periodic background tasks.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/metrics"
)

// Job is a named periodic task. Each run gets its own Timeout.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// FailureFunc is notified of every failed job run.
type FailureFunc func(job string, err error)

// Scheduler owns a fixed list of jobs for the process lifetime.
// It is built once at startup and stopped explicitly at shutdown.
type Scheduler struct {
	jobs      []Job
	onFailure FailureFunc
	logger    *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler validates the jobs and creates a scheduler.
// onFailure may be nil.
func NewScheduler(jobs []Job, onFailure FailureFunc, logger *zap.Logger) (*Scheduler, error) {
	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if j.Name == "" {
			return nil, errors.New("job name is required")
		}
		if _, dup := seen[j.Name]; dup {
			return nil, fmt.Errorf("duplicate job %q", j.Name)
		}
		seen[j.Name] = struct{}{}
		if j.Interval <= 0 {
			return nil, fmt.Errorf("job %q: interval must be > 0", j.Name)
		}
		if j.Run == nil {
			return nil, fmt.Errorf("job %q: run func is required", j.Name)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobs:      append([]Job(nil), jobs...),
		onFailure: onFailure,
		logger:    logger,
	}, nil
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start launches one goroutine per job. The first run happens one interval
// after Start. With no jobs Start does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || len(s.jobs) == 0 {
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.logger.Info("job scheduler started", zap.Strings("jobs", s.Jobs()))
}

// Stop cancels all jobs and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("job scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, j Job) {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, j.Run)
	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(j.Name, "error").Inc()
		s.logger.Error("job failed",
			zap.String("job", j.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		if s.onFailure != nil {
			s.onFailure(j.Name, err)
		}
		return
	}

	metrics.JobRunsTotal.WithLabelValues(j.Name, "success").Inc()
	s.logger.Debug("job completed",
		zap.String("job", j.Name),
		zap.Duration("duration", time.Since(start)),
	)
}

// safeRun converts a panicking job into a failed run.
func safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return run(ctx)
}
