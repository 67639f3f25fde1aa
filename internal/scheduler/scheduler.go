// Package scheduler runs the evaluation sweep and the reward distribution on
// their cron schedules. The two jobs never overlap: both hold a single run
// gate, so a distribution triggered during an evaluation waits for it.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/worker/core"
	"github.com/edithx/rewarder/internal/worker/evaluation"
	"github.com/edithx/rewarder/internal/worker/reward"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Job names, used for metrics and run records.
const (
	JobEvaluate   = "evaluate"
	JobDistribute = "distribute"
)

// Evaluator runs one evaluation pass.
type Evaluator interface {
	Run(ctx context.Context) (evaluation.Summary, error)
}

// Distributor pays out rewards and archives stale content.
type Distributor interface {
	Distribute(ctx context.Context) (reward.Result, error)
	Archive(ctx context.Context) (int64, error)
}

// Scheduler owns the cron triggers of both jobs.
type Scheduler struct {
	cron        *cron.Cron
	evaluator   Evaluator
	distributor Distributor
	gate        *semaphore.Weighted
	metrics     *metrics.Metrics
	reporter    *core.StatusReporter
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMetrics records pass durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithReporter stores the outcome of every run.
func WithReporter(r *core.StatusReporter) Option {
	return func(s *Scheduler) { s.reporter = r }
}

// New creates a scheduler for the configured cron expressions.
func New(
	evaluator Evaluator, distributor Distributor, cfg config.Schedule, logger *zap.Logger, opts ...Option,
) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		evaluator:   evaluator,
		distributor: distributor,
		gate:        semaphore.NewWeighted(1),
		logger:      logger.Named("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	cronLog := cronLogger{logger: s.logger.Sugar()}
	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := s.cron.AddFunc(cfg.Evaluate, func() { _ = s.RunEvaluation(s.ctx) }); err != nil {
		return nil, fmt.Errorf("invalid evaluate schedule %q: %w", cfg.Evaluate, err)
	}

	if _, err := s.cron.AddFunc(cfg.Distribute, func() { _ = s.RunDistribution(s.ctx) }); err != nil {
		return nil, fmt.Errorf("invalid distribute schedule %q: %w", cfg.Distribute, err)
	}

	return s, nil
}

// Start begins firing triggers. Jobs run with a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	for _, entry := range s.cron.Entries() {
		s.logger.Info("Scheduled job", zap.Int("id", int(entry.ID)), zap.Time("next", entry.Next))
	}
}

// Stop stops firing triggers, cancels the running job and waits for it to
// return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not stop in time: %w", ctx.Err())
	}
}

// RunEvaluation runs one evaluation pass once no other job is running.
func (s *Scheduler) RunEvaluation(ctx context.Context) error {
	return s.run(ctx, JobEvaluate, func(ctx context.Context) (string, error) {
		summary, err := s.evaluator.Run(ctx)
		return summary.String(), err
	})
}

// RunDistribution distributes rewards and then archives stale approved
// content, once no other job is running. Nothing is archived when the
// distribution fails.
func (s *Scheduler) RunDistribution(ctx context.Context) error {
	return s.run(ctx, JobDistribute, func(ctx context.Context) (string, error) {
		result, err := s.distributor.Distribute(ctx)
		if err != nil {
			return "", err
		}

		archived, err := s.distributor.Archive(ctx)
		if err != nil {
			return result.String(), err
		}

		return fmt.Sprintf("%s; %d archived", result, archived), nil
	})
}

func (s *Scheduler) run(ctx context.Context, job string, fn func(ctx context.Context) (string, error)) error {
	logger := s.logger.With(zap.String("job", job))

	if !s.gate.TryAcquire(1) {
		logger.Info("Waiting for running job to finish")

		if err := s.gate.Acquire(ctx, 1); err != nil {
			logger.Warn("Gave up waiting for running job", zap.Error(err))
			return fmt.Errorf("%s: %w", job, err)
		}
	}
	defer s.gate.Release(1)

	started := time.Now()
	logger.Info("Job started")

	summary, err := fn(ctx)
	finished := time.Now()

	s.metrics.PassFinished(job, err, finished.Sub(started))

	record := core.RunRecord{
		Job:        job,
		StartedAt:  started,
		FinishedAt: finished,
		Summary:    summary,
	}
	if err != nil {
		record.Error = err.Error()
	}
	s.reporter.SetHealthy(err == nil)
	s.reporter.RecordRun(context.WithoutCancel(ctx), record)

	if err != nil {
		logger.Error("Job failed", zap.Duration("duration", finished.Sub(started)), zap.Error(err))
		return fmt.Errorf("%s: %w", job, err)
	}

	logger.Info("Job completed", zap.Duration("duration", finished.Sub(started)), zap.String("summary", summary))

	return nil
}

// cronLogger routes cron's own logging to zap. Routine scheduling messages
// are logged at debug level.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
