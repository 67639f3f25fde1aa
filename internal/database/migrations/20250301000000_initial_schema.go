package migrations

import (
	"context"
	"fmt"

	"github.com/edithx/rewarder/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Participant)(nil),
			(*types.ParticipantReward)(nil),
			(*types.BoardEntry)(nil),
			(*types.ContentItem)(nil),
			(*types.TaskList)(nil),
			(*types.RewardPayout)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.RewardPayout)(nil),
			(*types.TaskList)(nil),
			(*types.ContentItem)(nil),
			(*types.BoardEntry)(nil),
			(*types.ParticipantReward)(nil),
			(*types.Participant)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
