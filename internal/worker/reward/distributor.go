// Package reward distributes the daily pool over approved content and
// archives content that was never rewarded.
package reward

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/edithx/rewarder/internal/database/models"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/worker/core"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRewardMismatch is returned when fewer items were marked rewarded than
// were paid for. The transaction is rolled back.
var ErrRewardMismatch = errors.New("rewarded item count mismatch")

// Result describes one distribution run.
type Result struct {
	RunID        uuid.UUID
	Items        int
	Participants int
	Referrals    int
	Distributed  decimal.Decimal
}

// Skipped reports whether there was nothing to distribute.
func (r Result) Skipped() bool {
	return r.Items == 0
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.Skipped() {
		return "nothing to distribute"
	}
	return fmt.Sprintf("run %s: %d items, %d participants, %d referrals, %s points",
		r.RunID, r.Items, r.Participants, r.Referrals, r.Distributed.String())
}

// Distributor pays out the daily pool.
type Distributor struct {
	store    Store
	cfg      config.Reward
	platform string
	metrics  *metrics.Metrics
	reporter *core.StatusReporter
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Distributor.
type Option func(*Distributor)

// WithMetrics records payout runs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Distributor) { d.metrics = m }
}

// WithReporter reports distribution progress.
func WithReporter(r *core.StatusReporter) Option {
	return func(d *Distributor) { d.reporter = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Distributor) { d.now = now }
}

// New creates a new reward distributor crediting rewards on platform.
func New(store Store, cfg config.Reward, platform string, logger *zap.Logger, opts ...Option) *Distributor {
	d := &Distributor{
		store:    store,
		cfg:      cfg,
		platform: platform,
		now:      time.Now,
		logger:   logger.Named("reward"),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Distribute splits the daily pool over every approved, unrewarded item in a
// single transaction. Either every credit, board clear, status flip and
// ledger row is committed, or none is.
func (d *Distributor) Distribute(ctx context.Context) (Result, error) {
	pool := decimal.NewFromFloat(d.cfg.DailyPool)

	var result Result
	err := d.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = d.distribute(ctx, tx, pool)
		return err
	})
	if err != nil {
		d.metrics.PayoutRun(err, 0)
		d.logger.Error("Reward distribution rolled back", zap.Error(err))
		return Result{}, fmt.Errorf("failed to distribute rewards: %w", err)
	}

	d.metrics.PayoutRun(nil, result.Distributed.InexactFloat64())

	if result.Skipped() {
		d.logger.Info("No approved content to reward")
		return result, nil
	}

	d.logger.Info("Rewards distributed",
		zap.String("runID", result.RunID.String()),
		zap.Int("items", result.Items),
		zap.Int("participants", result.Participants),
		zap.Int("referrals", result.Referrals),
		zap.String("distributed", result.Distributed.String()))

	return result, nil
}

// distribute runs one attempt of the transaction body. It may run more than
// once when the transaction is retried, so it keeps no state outside result.
func (d *Distributor) distribute(ctx context.Context, tx Tx, pool decimal.Decimal) (Result, error) {
	result := Result{RunID: uuid.New(), Distributed: decimal.Zero}

	// Step 1: Aggregate approved content
	d.reporter.UpdateStatus("Aggregating approved content", 0)

	items, err := tx.GetApprovedUnrewarded(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to get approved content: %w", err)
	}

	if len(items) == 0 {
		return result, nil
	}

	plan := ComputePlan(items, pool)
	emails := plan.Emails()

	result.Items = len(plan.ItemIDs)
	result.Participants = len(plan.Allocations)

	// Step 2: Read referral state before crediting anyone
	d.reporter.UpdateStatus("Loading participants", 20)

	participants, err := tx.GetParticipants(ctx, emails)
	if err != nil {
		return result, fmt.Errorf("failed to get participants: %w", err)
	}

	prior, err := tx.GetTotalRewards(ctx, emails, d.platform)
	if err != nil {
		return result, fmt.Errorf("failed to get accumulated rewards: %w", err)
	}

	// Step 3: Credit tier payouts
	d.reporter.UpdateStatus("Crediting rewards", 40)

	payouts := make([]*types.RewardPayout, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		if !a.Amount.IsPositive() {
			continue
		}

		if err := tx.IncrementReward(ctx, a.Email, d.platform, a.Amount); err != nil {
			return result, fmt.Errorf("failed to credit %s: %w", a.Email, err)
		}

		payouts = append(payouts, &types.RewardPayout{
			RunID:  result.RunID,
			Email:  a.Email,
			Kind:   enum.PayoutKindTier,
			Tier:   a.Tier,
			Score:  a.Score,
			Amount: a.Amount,
		})
		result.Distributed = result.Distributed.Add(a.Amount)
	}

	// Step 4: Referral bonuses for first-time earners
	referrals, err := d.creditReferrals(ctx, tx, plan, participants, prior, result.RunID)
	if err != nil {
		return result, err
	}

	for _, p := range referrals {
		result.Distributed = result.Distributed.Add(p.Amount)
	}
	result.Referrals = len(referrals)
	payouts = append(payouts, referrals...)

	// Step 5: Clear boards and flip statuses
	d.reporter.UpdateStatus("Marking content rewarded", 70)

	if d.cfg.ClearBoardOnPayout {
		if err := tx.ClearBoard(ctx, creditedEmails(emails, referrals)); err != nil {
			return result, fmt.Errorf("failed to clear boards: %w", err)
		}
	}

	marked, err := tx.MarkRewarded(ctx, plan.ItemIDs)
	if err != nil {
		return result, fmt.Errorf("failed to mark content rewarded: %w", err)
	}

	if marked != int64(len(plan.ItemIDs)) {
		return result, fmt.Errorf("%w: marked %d of %d", ErrRewardMismatch, marked, len(plan.ItemIDs))
	}

	// Step 6: Ledger
	d.reporter.UpdateStatus("Recording payouts", 90)

	if err := tx.RecordPayouts(ctx, payouts); err != nil {
		return result, fmt.Errorf("failed to record payouts: %w", err)
	}

	d.reporter.UpdateStatus("Distribution completed", 100)

	return result, nil
}

// creditReferrals pays the referral bonus to the inviter of every allocated
// participant that had no reward on the platform before this run.
func (d *Distributor) creditReferrals(
	ctx context.Context,
	tx Tx,
	plan Plan,
	participants map[string]*types.Participant,
	prior map[string]decimal.Decimal,
	runID uuid.UUID,
) ([]*types.RewardPayout, error) {
	bonus := decimal.NewFromFloat(d.cfg.ReferralBonus)
	if !bonus.IsPositive() {
		return nil, nil
	}

	var payouts []*types.RewardPayout

	for _, a := range plan.Allocations {
		participant, ok := participants[a.Email]
		if !ok || participant.ReferralCode == "" || !a.Amount.IsPositive() {
			continue
		}

		if total, ok := prior[a.Email]; ok && !total.IsZero() {
			continue
		}

		inviter, err := tx.GetByInviteCode(ctx, participant.ReferralCode)
		if errors.Is(err, models.ErrParticipantNotFound) {
			d.logger.Warn("Referral code has no owner",
				zap.String("email", a.Email),
				zap.String("code", participant.ReferralCode))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get referrer: %w", err)
		}

		if inviter.Email == a.Email {
			continue
		}

		if err := tx.IncrementReward(ctx, inviter.Email, d.platform, bonus); err != nil {
			return nil, fmt.Errorf("failed to credit referral bonus to %s: %w", inviter.Email, err)
		}

		if err := tx.IncrementInvitesUsed(ctx, inviter.Email); err != nil {
			return nil, fmt.Errorf("failed to count invite of %s: %w", inviter.Email, err)
		}

		payouts = append(payouts, &types.RewardPayout{
			RunID:  runID,
			Email:  inviter.Email,
			Kind:   enum.PayoutKindReferral,
			Amount: bonus,
		})

		d.logger.Debug("Credited referral bonus",
			zap.String("referrer", inviter.Email),
			zap.String("referee", a.Email))
	}

	return payouts, nil
}

// creditedEmails returns every participant credited in this run: tier
// recipients followed by referrers paid only a bonus.
func creditedEmails(emails []string, referrals []*types.RewardPayout) []string {
	credited := slices.Clone(emails)
	for _, p := range referrals {
		if !slices.Contains(credited, p.Email) {
			credited = append(credited, p.Email)
		}
	}
	return credited
}

// Archive moves approved content submitted more than ArchiveAfter ago and
// never rewarded into Archived.
func (d *Distributor) Archive(ctx context.Context) (int64, error) {
	cutoff := d.now().Add(-d.cfg.ArchiveAfter)

	archived, err := d.store.ArchiveApproved(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to archive approved content: %w", err)
	}

	d.logger.Info("Archived stale approved content",
		zap.Int64("archived", archived),
		zap.Time("cutoff", cutoff))

	return archived, nil
}

// Payouts returns the ledger of one run.
func (d *Distributor) Payouts(ctx context.Context, runID uuid.UUID) ([]*types.RewardPayout, error) {
	payouts, err := d.store.GetPayoutRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts of run %s: %w", runID, err)
	}
	return payouts, nil
}
