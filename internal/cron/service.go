package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// Lock coordinates exclusive runs across processes sharing a Redis.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// ServiceParams configure the scheduler. Lock is optional; without it every
// process runs its own cycle. JobTimeout bounds a single job and defaults to
// the interval.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.JobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service executes registered jobs on a fixed cadence.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.JobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// NewService builds a scheduler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

// Run executes a cycle immediately, then once per interval until the context
// is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduler cycle failed", err)
	}
}

// runCycle returns an error only when the cycle could not start; job failures
// are logged and counted individually.
func (s *Service) runCycle(ctx context.Context) error {
	if s.lock != nil {
		held, err := s.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire scheduler lock: %w", err)
		}
		if !held {
			s.logg.Debug(ctx, "scheduler lock held elsewhere; cycle skipped")
			return nil
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Error(ctx, "release scheduler lock", err)
			}
		}()
	}

	var failures error
	for _, job := range s.registry.Jobs() {
		failures = multierr.Append(failures, s.runJob(ctx, job))
	}
	if n := len(multierr.Errors(failures)); n > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "failed_jobs", n), "scheduler cycle finished with failures")
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   name,
		"event": "scheduler.job",
	})
	runCtx, cancel := context.WithTimeout(jobCtx, s.jobTimeout)
	defer cancel()

	started := time.Now()
	err := job.Run(runCtx)
	elapsed := time.Since(started)

	s.metrics.ObserveDuration(name, elapsed)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "job failed", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.metrics.IncSuccess(name)
	s.logg.Debug(jobCtx, "job completed")
	return nil
}
