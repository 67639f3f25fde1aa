package models

import (
	"context"
	"fmt"
	"time"

	"github.com/edithx/rewarder/internal/database/dbretry"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ContentModel handles database operations for submitted content.
type ContentModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewContent creates a ContentModel.
func NewContent(db *bun.DB, logger *zap.Logger) *ContentModel {
	return &ContentModel{
		db:     db,
		logger: logger.Named("db_content"),
	}
}

// AddContent inserts a new pending content item.
func (r *ContentModel) AddContent(ctx context.Context, item *types.ContentItem) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		item.Status = enum.ContentStatusPending
		item.Rewarded = false

		_, err := r.db.NewInsert().Model(item).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add content: %w (url=%s)", err, item.URL)
		}
		return nil
	})
}

// GetPendingContent returns unrewarded pending items submitted before the cutoff, oldest first.
func (r *ContentModel) GetPendingContent(ctx context.Context, submittedBefore time.Time) ([]*types.ContentItem, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]*types.ContentItem, error) {
		var items []*types.ContentItem

		err := r.db.NewSelect().Model(&items).
			Where("status = ?", enum.ContentStatusPending).
			Where("rewarded = false").
			Where("created_at < ?", submittedBefore).
			Order("created_at ASC", "id ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get pending content: %w", err)
		}

		return items, nil
	})
}

// SaveEvaluation stores the outcome of an evaluation. Only items still
// pending and unrewarded are updated; the returned flag reports whether the
// row changed.
func (r *ContentModel) SaveEvaluation(ctx context.Context, result *types.EvaluationResult, at time.Time) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		res, err := r.db.NewUpdate().
			Model((*types.ContentItem)(nil)).
			Set("status = ?", result.Status).
			Set("score_base = ?", result.Score.Base).
			Set("score_performance = ?", result.Score.Performance).
			Set("score_quality = ?", result.Score.Quality).
			Set("score_bonus = ?", result.Score.Bonus).
			Set("score_total = ?", result.Score.Total).
			Set("evaluated_at = ?", at).
			Where("id = ?", result.ItemID).
			Where("status = ?", enum.ContentStatusPending).
			Where("rewarded = false").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to save evaluation: %w (itemID=%d)", err, result.ItemID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}

		return affected > 0, nil
	})
}

// GetApprovedUnrewardedWithTx returns every approved item not yet rewarded,
// locking the rows for the rest of the transaction.
func (r *ContentModel) GetApprovedUnrewardedWithTx(ctx context.Context, tx bun.IDB) ([]types.ApprovedContent, error) {
	var items []*types.ContentItem

	err := tx.NewSelect().Model(&items).
		Column("id", "owner_email", "score_total").
		Where("status = ?", enum.ContentStatusApproved).
		Where("rewarded = false").
		Order("id ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved content: %w", err)
	}

	result := make([]types.ApprovedContent, len(items))
	for i, item := range items {
		result[i] = types.ApprovedContent{
			ID:         item.ID,
			OwnerEmail: item.OwnerEmail,
			Total:      item.Score.Total,
		}
	}

	return result, nil
}

// MarkRewardedWithTx flips approved items to rewarded. Items in any other
// state are left untouched.
func (r *ContentModel) MarkRewardedWithTx(ctx context.Context, tx bun.IDB, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := tx.NewUpdate().
		Model((*types.ContentItem)(nil)).
		Set("status = ?", enum.ContentStatusRewarded).
		Set("rewarded = true").
		Set("rewarded_at = ?", at).
		Where("id IN (?)", bun.In(ids)).
		Where("status = ?", enum.ContentStatusApproved).
		Where("rewarded = false").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark content rewarded: %w", err)
	}

	return res.RowsAffected()
}

// ArchiveApproved archives approved unrewarded items submitted before the cutoff.
func (r *ContentModel) ArchiveApproved(ctx context.Context, submittedBefore time.Time) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		res, err := r.db.NewUpdate().
			Model((*types.ContentItem)(nil)).
			Set("status = ?", enum.ContentStatusArchived).
			Where("status = ?", enum.ContentStatusApproved).
			Where("rewarded = false").
			Where("created_at < ?", submittedBefore).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to archive content: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}

		r.logger.Debug("Archived approved content", zap.Int64("count", affected))

		return affected, nil
	})
}
