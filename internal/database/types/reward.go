package types

import (
	"time"

	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// TaskList is the campaign directive of one week.
type TaskList struct {
	bun.BaseModel `bun:"table:task_lists"`

	ID     int64   `bun:",pk,autoincrement"`
	Title  string  `bun:",notnull"`
	Year   int     `bun:",notnull,unique:task_lists_year_week"`
	Month  int     `bun:",notnull"`
	Week   int     `bun:",notnull,unique:task_lists_year_week"`
	Weight float64 `bun:",notnull,default:1"`
}

// RewardPayout is one credit written by a distribution run.
type RewardPayout struct {
	bun.BaseModel `bun:"table:reward_payouts"`

	ID        int64           `bun:",pk,autoincrement"`
	RunID     uuid.UUID       `bun:"type:uuid,notnull"`
	Email     string          `bun:",notnull"`
	Kind      enum.PayoutKind `bun:",notnull"`
	Tier      enum.RewardTier `bun:",notnull,default:0"`
	Score     float64         `bun:",notnull,default:0"`
	Amount    decimal.Decimal `bun:"type:numeric(20,8),notnull"`
	CreatedAt time.Time       `bun:",notnull,default:current_timestamp"`
}

// ApprovedContent is an approved unrewarded item considered for a payout.
type ApprovedContent struct {
	ID         int64
	OwnerEmail string
	Total      float64
}
