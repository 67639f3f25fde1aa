package types

import (
	"time"

	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// ContentScore is the persisted point breakdown of a content item.
type ContentScore struct {
	Base        int     `bun:",notnull,default:0"`
	Performance int     `bun:",notnull,default:0"`
	Quality     int     `bun:",notnull,default:0"`
	Bonus       int     `bun:",notnull,default:0"`
	Total       float64 `bun:",notnull,default:0"`
}

// ContentItem is one submitted post or thread.
type ContentItem struct {
	bun.BaseModel `bun:"table:content_items"`

	ID          int64              `bun:",pk,autoincrement"`
	OwnerEmail  string             `bun:",notnull"`
	URL         string             `bun:",notnull"`
	Status      enum.ContentStatus `bun:",notnull,default:0"`
	Score       ContentScore       `bun:"embed:score_"`
	Rewarded    bool               `bun:",notnull,default:false"`
	CreatedAt   time.Time          `bun:",notnull,default:current_timestamp"`
	PostedAt    time.Time          `bun:",notnull"`
	EvaluatedAt time.Time          `bun:",nullzero"`
	RewardedAt  time.Time          `bun:",nullzero"`
}

// EvaluationResult is the outcome of evaluating one pending item.
type EvaluationResult struct {
	ItemID int64
	Status enum.ContentStatus
	Score  ContentScore
}
