package models

import (
	"context"
	"fmt"

	"github.com/edithx/rewarder/internal/database/dbretry"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PayoutModel handles the reward payout ledger.
type PayoutModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPayout creates a PayoutModel.
func NewPayout(db *bun.DB, logger *zap.Logger) *PayoutModel {
	return &PayoutModel{
		db:     db,
		logger: logger.Named("db_payout"),
	}
}

// RecordWithTx writes ledger rows.
func (r *PayoutModel) RecordWithTx(ctx context.Context, tx bun.IDB, payouts []*types.RewardPayout) error {
	if len(payouts) == 0 {
		return nil
	}

	_, err := tx.NewInsert().Model(&payouts).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record payouts: %w", err)
	}
	return nil
}

// GetRun returns the ledger rows of one distribution run.
func (r *PayoutModel) GetRun(ctx context.Context, runID uuid.UUID) ([]*types.RewardPayout, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.RewardPayout, error) {
		var payouts []*types.RewardPayout

		err := r.db.NewSelect().Model(&payouts).
			Where("run_id = ?", runID).
			Order("kind ASC", "amount DESC", "email ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get payout run: %w (runID=%s)", err, runID)
		}

		return payouts, nil
	})
}
