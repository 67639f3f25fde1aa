// Package evaluation drives evaluation passes over pending content: every
// item is fetched, validated, scored and persisted as Approved or Rejected,
// after which all participants are re-ranked.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/edithx/rewarder/internal/database/models"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/scoring"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/social"
	"github.com/edithx/rewarder/internal/worker/core"
	"github.com/edithx/rewarder/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Item outcomes, also used as metric labels.
const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Store is the persistence the orchestrator needs.
type Store interface {
	GetPendingContent(ctx context.Context, submittedBefore time.Time) ([]*types.ContentItem, error)
	SaveEvaluation(ctx context.Context, result *types.EvaluationResult) (bool, error)
	GetTaskList(ctx context.Context, year, week int) (*types.TaskList, error)
	GetParticipantEmails(ctx context.Context) ([]string, error)
	AppendBoard(ctx context.Context, ranking []types.RankedParticipant) error
}

// MetricsFetcher retrieves the engagement metrics of a post URL.
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context, url string) (*social.Metrics, error)
}

// ContentScorer provides the LLM judgments. Both methods degrade to safe
// values instead of failing.
type ContentScorer interface {
	QualityScore(ctx context.Context, texts []string) int
	IsRelated(ctx context.Context, texts []string, taskTitle string) bool
}

// Summary describes one evaluation pass.
type Summary struct {
	Pending      int
	Approved     int
	Rejected     int
	Skipped      int
	Failed       int
	Participants int
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("%d pending, %d approved, %d rejected, %d skipped, %d failed, %d ranked",
		s.Pending, s.Approved, s.Rejected, s.Skipped, s.Failed, s.Participants)
}

func (s *Summary) add(outcome string) {
	switch outcome {
	case OutcomeApproved:
		s.Approved++
	case OutcomeRejected:
		s.Rejected++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// Orchestrator runs evaluation passes.
type Orchestrator struct {
	store     Store
	fetcher   MetricsFetcher
	scorer    ContentScorer
	evaluator *scoring.Evaluator
	cfg       config.Evaluation
	location  *time.Location
	metrics   *metrics.Metrics
	reporter  *core.StatusReporter
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLocation sets the time zone posting weeks are computed in.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) { o.location = loc }
}

// WithMetrics records item outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithReporter reports pass progress.
func WithReporter(r *core.StatusReporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates a new evaluation orchestrator.
func New(
	store Store,
	fetcher MetricsFetcher,
	scorer ContentScorer,
	evaluator *scoring.Evaluator,
	cfg config.Evaluation,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		fetcher:   fetcher,
		scorer:    scorer,
		evaluator: evaluator,
		cfg:       cfg,
		location:  time.UTC,
		now:       time.Now,
		logger:    logger.Named("evaluation"),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.cfg.BatchSize <= 0 {
		o.cfg.BatchSize = 1
	}

	return o
}

// Run evaluates every pending item submitted at least MinContentAge ago and
// re-ranks all participants. Per-item failures are logged and leave the item
// Pending for the next pass. A cancelled context stops the pass between
// batches without touching the board.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	// Step 1: Load pending content
	o.reporter.UpdateStatus("Loading pending content", 0)

	cutoff := o.now().Add(-o.cfg.MinContentAge)
	items, err := o.store.GetPendingContent(ctx, cutoff)
	if err != nil {
		return summary, fmt.Errorf("failed to get pending content: %w", err)
	}

	summary.Pending = len(items)
	o.logger.Info("Starting evaluation pass",
		zap.Int("pending", len(items)),
		zap.Time("cutoff", cutoff))

	// Step 2: Evaluate in batches
	totals := make(map[string]float64)
	tasks := newTaskCache(o.store)

	var mu sync.Mutex

	for start := 0; start < len(items); start += o.cfg.BatchSize {
		if utils.ContextGuard(ctx) {
			return summary, ctx.Err()
		}

		end := min(start+o.cfg.BatchSize, len(items))
		batch := items[start:end]

		o.reporter.UpdateStatus(
			fmt.Sprintf("Evaluating items %d-%d of %d", start+1, end, len(items)),
			start*90/len(items),
		)

		p := pool.New().WithMaxGoroutines(len(batch))
		for _, item := range batch {
			p.Go(func() {
				outcome, total := o.evaluateItem(ctx, item, tasks)
				o.metrics.ItemEvaluated(outcome)

				mu.Lock()
				defer mu.Unlock()

				summary.add(outcome)
				if outcome == OutcomeApproved {
					totals[item.OwnerEmail] += total
				}
			})
		}
		p.Wait()

		if end < len(items) && !utils.IntervalSleep(ctx, o.cfg.BatchDelay, o.logger, "evaluation pass") {
			return summary, ctx.Err()
		}
	}

	// Step 3: Rank every participant
	o.reporter.UpdateStatus("Ranking participants", 90)

	emails, err := o.store.GetParticipantEmails(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to get participants: %w", err)
	}

	ranking := Rank(emails, totals)
	summary.Participants = len(ranking)

	if len(ranking) > 0 {
		if err := o.store.AppendBoard(ctx, ranking); err != nil {
			return summary, fmt.Errorf("failed to append board entries: %w", err)
		}
	}

	o.reporter.UpdateStatus("Evaluation pass completed", 100)
	o.logger.Info("Evaluation pass completed",
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("ranked", summary.Participants))

	return summary, nil
}

// evaluateItem evaluates one item and returns its outcome and, when approved,
// its weighted total.
func (o *Orchestrator) evaluateItem(ctx context.Context, item *types.ContentItem, tasks *taskCache) (string, float64) {
	logger := o.logger.With(zap.Int64("itemID", item.ID), zap.String("url", item.URL))

	if item.Rewarded || item.Status != enum.ContentStatusPending {
		return OutcomeSkipped, 0
	}

	if _, err := social.ExtractPostID(item.URL); err != nil {
		logger.Info("Rejecting item with invalid post URL")
		return o.reject(ctx, item, logger), 0
	}

	m, err := o.fetcher.FetchMetrics(ctx, item.URL)
	if err != nil {
		logger.Warn("Failed to fetch metrics, retrying next pass", zap.Error(err))
		return OutcomeSkipped, 0
	}

	if !o.evaluator.IsValid(m) {
		logger.Info("Rejecting invalid content")
		return o.reject(ctx, item, logger), 0
	}

	llmScore := o.scorer.QualityScore(ctx, m.FullText)
	authenticity := o.evaluator.Authenticity(m)
	suspicious := o.evaluator.IsSuspicious(m)

	approved, reasons := o.evaluator.Approve(llmScore, m, authenticity, suspicious)
	if !approved {
		logger.Info("Rejecting content below thresholds",
			zap.Int("llmScore", llmScore),
			zap.Int("authenticity", authenticity),
			zap.Strings("reasons", reasons))
		return o.reject(ctx, item, logger), 0
	}

	breakdown := o.evaluator.FinalScore(llmScore, m, authenticity)

	year, week := utils.SundayWeek(item.PostedAt.In(o.location))
	task, err := tasks.get(ctx, year, week)
	if err != nil {
		logger.Error("Failed to get task list", zap.Int("year", year), zap.Int("week", week), zap.Error(err))
		return OutcomeFailed, 0
	}

	if task != nil && o.scorer.IsRelated(ctx, m.FullText, task.Title) {
		breakdown = scoring.ApplyTaskWeight(breakdown, task.Weight)
		logger.Debug("Applied task weight", zap.String("task", task.Title), zap.Float64("weight", task.Weight))
	}

	outcome := o.save(ctx, &types.EvaluationResult{
		ItemID: item.ID,
		Status: enum.ContentStatusApproved,
		Score: types.ContentScore{
			Base:        breakdown.Base,
			Performance: breakdown.Performance,
			Quality:     breakdown.Quality,
			Bonus:       breakdown.Bonus,
			Total:       breakdown.Total,
		},
	}, OutcomeApproved, logger)
	if outcome != OutcomeApproved {
		return outcome, 0
	}

	logger.Info("Approved content",
		zap.Int("llmScore", llmScore),
		zap.Int("authenticity", authenticity),
		zap.Float64("total", breakdown.Total))

	return OutcomeApproved, breakdown.Total
}

// reject stores a Rejected status with an all-zero score.
func (o *Orchestrator) reject(ctx context.Context, item *types.ContentItem, logger *zap.Logger) string {
	return o.save(ctx, &types.EvaluationResult{
		ItemID: item.ID,
		Status: enum.ContentStatusRejected,
	}, OutcomeRejected, logger)
}

func (o *Orchestrator) save(ctx context.Context, result *types.EvaluationResult, outcome string, logger *zap.Logger) string {
	updated, err := o.store.SaveEvaluation(ctx, result)
	if err != nil {
		logger.Error("Failed to save evaluation", zap.Error(err))
		return OutcomeFailed
	}

	if !updated {
		logger.Debug("Item is no longer pending")
		return OutcomeSkipped
	}

	return outcome
}

// Rank orders participants by score descending, then email ascending, and
// assigns dense ranks: tied scores share a rank and the next distinct score
// gets the following rank. Participants without a score rank with 0.
// Owners missing from emails are ranked as well.
func Rank(emails []string, totals map[string]float64) []types.RankedParticipant {
	seen := make(map[string]struct{}, len(emails)+len(totals))
	ranking := make([]types.RankedParticipant, 0, len(emails)+len(totals))

	for _, email := range emails {
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		ranking = append(ranking, types.RankedParticipant{Email: email, Score: totals[email]})
	}

	for email, total := range totals {
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		ranking = append(ranking, types.RankedParticipant{Email: email, Score: total})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].Email < ranking[j].Email
	})

	rank := 0
	for i := range ranking {
		if i == 0 || ranking[i].Score != ranking[i-1].Score {
			rank++
		}
		ranking[i].Rank = rank
	}

	return ranking
}

// taskCache memoizes task list lookups for the duration of one pass.
type taskCache struct {
	store Store
	mu    sync.Mutex
	weeks map[[2]int]*types.TaskList
}

func newTaskCache(store Store) *taskCache {
	return &taskCache{
		store: store,
		weeks: make(map[[2]int]*types.TaskList),
	}
}

// get returns the task list of a week, or nil when the week has none.
func (c *taskCache) get(ctx context.Context, year, week int) (*types.TaskList, error) {
	key := [2]int{year, week}

	c.mu.Lock()
	defer c.mu.Unlock()

	if task, ok := c.weeks[key]; ok {
		return task, nil
	}

	task, err := c.store.GetTaskList(ctx, year, week)
	if errors.Is(err, models.ErrTaskListNotFound) {
		task, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.weeks[key] = task

	return task, nil
}
