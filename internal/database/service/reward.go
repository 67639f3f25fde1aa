package service

import (
	"context"
	"time"

	"github.com/edithx/rewarder/internal/database/dbretry"
	"github.com/edithx/rewarder/internal/database/models"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// RewardService handles persistence for reward distribution.
type RewardService struct {
	db          *bun.DB
	content     *models.ContentModel
	participant *models.ParticipantModel
	payout      *models.PayoutModel
	logger      *zap.Logger
}

// NewReward creates a new reward service.
func NewReward(
	db *bun.DB,
	content *models.ContentModel,
	participant *models.ParticipantModel,
	payout *models.PayoutModel,
	logger *zap.Logger,
) *RewardService {
	return &RewardService{
		db:          db,
		content:     content,
		participant: participant,
		payout:      payout,
		logger:      logger.Named("reward_service"),
	}
}

// RewardTx exposes the reward operations bound to one transaction.
type RewardTx struct {
	tx          bun.Tx
	content     *models.ContentModel
	participant *models.ParticipantModel
	payout      *models.PayoutModel
	now         time.Time
}

// WithTx runs fn inside one transaction. Any error rolls back every write
// made through the RewardTx; transient failures retry the whole function.
func (s *RewardService) WithTx(ctx context.Context, fn func(ctx context.Context, tx *RewardTx) error) error {
	return dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &RewardTx{
			tx:          tx,
			content:     s.content,
			participant: s.participant,
			payout:      s.payout,
			now:         time.Now(),
		})
	})
}

// ArchiveApproved archives approved unrewarded content submitted before the cutoff.
func (s *RewardService) ArchiveApproved(ctx context.Context, submittedBefore time.Time) (int64, error) {
	return s.content.ArchiveApproved(ctx, submittedBefore)
}

// GetPayoutRun returns the ledger of one distribution run.
func (s *RewardService) GetPayoutRun(ctx context.Context, runID uuid.UUID) ([]*types.RewardPayout, error) {
	return s.payout.GetRun(ctx, runID)
}

// GetApprovedUnrewarded returns approved content not yet rewarded.
func (t *RewardTx) GetApprovedUnrewarded(ctx context.Context) ([]types.ApprovedContent, error) {
	return t.content.GetApprovedUnrewardedWithTx(ctx, t.tx)
}

// GetParticipants returns participants by email.
func (t *RewardTx) GetParticipants(ctx context.Context, emails []string) (map[string]*types.Participant, error) {
	return t.participant.GetParticipantsWithTx(ctx, t.tx, emails)
}

// GetTotalRewards returns the accumulated rewards on platform by email.
func (t *RewardTx) GetTotalRewards(
	ctx context.Context, emails []string, platform string,
) (map[string]decimal.Decimal, error) {
	return t.participant.GetTotalRewardsWithTx(ctx, t.tx, emails, platform)
}

// GetByInviteCode returns the owner of an invite code.
func (t *RewardTx) GetByInviteCode(ctx context.Context, code string) (*types.Participant, error) {
	return t.participant.GetByInviteCodeWithTx(ctx, t.tx, code)
}

// IncrementReward credits amount to a participant.
func (t *RewardTx) IncrementReward(ctx context.Context, email, platform string, amount decimal.Decimal) error {
	return t.participant.IncrementRewardWithTx(ctx, t.tx, email, platform, amount, t.now)
}

// IncrementInvitesUsed counts a used invite for the referrer.
func (t *RewardTx) IncrementInvitesUsed(ctx context.Context, email string) error {
	return t.participant.IncrementInvitesUsedWithTx(ctx, t.tx, email)
}

// ClearBoard clears the board history of the participants.
func (t *RewardTx) ClearBoard(ctx context.Context, emails []string) error {
	return t.participant.ClearBoardWithTx(ctx, t.tx, emails)
}

// MarkRewarded flips the items to rewarded.
func (t *RewardTx) MarkRewarded(ctx context.Context, ids []int64) (int64, error) {
	return t.content.MarkRewardedWithTx(ctx, t.tx, ids, t.now)
}

// RecordPayouts writes the ledger rows of the run.
func (t *RewardTx) RecordPayouts(ctx context.Context, payouts []*types.RewardPayout) error {
	for _, p := range payouts {
		p.CreatedAt = t.now
	}
	return t.payout.RecordWithTx(ctx, t.tx, payouts)
}
