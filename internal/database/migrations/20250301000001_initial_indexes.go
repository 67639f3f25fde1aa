package migrations

import (
	"context"

	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Pending sweep
			CREATE INDEX IF NOT EXISTS idx_content_items_pending
			ON content_items (created_at ASC)
			WHERE status = ? AND rewarded = false;

			-- Approved unrewarded content for distribution and archiving
			CREATE INDEX IF NOT EXISTS idx_content_items_approved
			ON content_items (owner_email, created_at)
			WHERE status = ? AND rewarded = false;

			CREATE INDEX IF NOT EXISTS idx_content_items_owner
			ON content_items (owner_email);

			-- Board history per participant
			CREATE INDEX IF NOT EXISTS idx_board_entries_email_time
			ON board_entries (email, recorded_at DESC);

			-- Referral lookups
			CREATE INDEX IF NOT EXISTS idx_participants_invite_code
			ON participants (invite_code)
			WHERE invite_code IS NOT NULL;

			-- Payout ledger
			CREATE INDEX IF NOT EXISTS idx_reward_payouts_run
			ON reward_payouts (run_id);

			CREATE INDEX IF NOT EXISTS idx_reward_payouts_email_time
			ON reward_payouts (email, created_at DESC);
		`, enum.ContentStatusPending, enum.ContentStatusApproved).Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_content_items_pending;
			DROP INDEX IF EXISTS idx_content_items_approved;
			DROP INDEX IF EXISTS idx_content_items_owner;
			DROP INDEX IF EXISTS idx_board_entries_email_time;
			DROP INDEX IF EXISTS idx_participants_invite_code;
			DROP INDEX IF EXISTS idx_reward_payouts_run;
			DROP INDEX IF EXISTS idx_reward_payouts_email_time;
		`).Exec(ctx)
		return err
	})
}
