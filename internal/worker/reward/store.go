package reward

import (
	"context"
	"time"

	"github.com/edithx/rewarder/internal/database/service"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tx is the set of reads and writes a distribution performs inside its
// transaction.
type Tx interface {
	GetApprovedUnrewarded(ctx context.Context) ([]types.ApprovedContent, error)
	GetParticipants(ctx context.Context, emails []string) (map[string]*types.Participant, error)
	GetTotalRewards(ctx context.Context, emails []string, platform string) (map[string]decimal.Decimal, error)
	GetByInviteCode(ctx context.Context, code string) (*types.Participant, error)
	IncrementReward(ctx context.Context, email, platform string, amount decimal.Decimal) error
	IncrementInvitesUsed(ctx context.Context, email string) error
	ClearBoard(ctx context.Context, emails []string) error
	MarkRewarded(ctx context.Context, ids []int64) (int64, error)
	RecordPayouts(ctx context.Context, payouts []*types.RewardPayout) error
}

// Store is the persistence the distributor needs. WithTx commits only when
// fn returns nil.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ArchiveApproved(ctx context.Context, submittedBefore time.Time) (int64, error)
	GetPayoutRun(ctx context.Context, runID uuid.UUID) ([]*types.RewardPayout, error)
}

// serviceStore adapts the database reward service to Store.
type serviceStore struct {
	*service.RewardService
}

// NewStore returns a Store backed by the database reward service.
func NewStore(svc *service.RewardService) Store {
	return serviceStore{svc}
}

func (s serviceStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.RewardService.WithTx(ctx, func(ctx context.Context, tx *service.RewardTx) error {
		return fn(ctx, tx)
	})
}
