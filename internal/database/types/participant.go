package types

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Participant is a user taking part in the reward program. Accounts are
// managed elsewhere; only the referral fields are read and written here.
type Participant struct {
	bun.BaseModel `bun:"table:participants"`

	Email        string    `bun:",pk"`
	InviteCode   string    `bun:",unique,nullzero"`
	ReferralCode string    `bun:",nullzero"`
	InvitesUsed  int       `bun:",notnull,default:0"`
	CreatedAt    time.Time `bun:",notnull,default:current_timestamp"`
}

// ParticipantReward is the accumulated reward of a participant on one platform.
type ParticipantReward struct {
	bun.BaseModel `bun:"table:participant_rewards"`

	Email       string          `bun:",pk"`
	Platform    string          `bun:",pk"`
	TotalReward decimal.Decimal `bun:"type:numeric(20,8),notnull,default:0"`
	UpdatedAt   time.Time       `bun:",notnull,default:current_timestamp"`
}

// BoardEntry is one score and rank snapshot recorded by an evaluation pass.
type BoardEntry struct {
	bun.BaseModel `bun:"table:board_entries"`

	ID         int64     `bun:",pk,autoincrement"`
	Email      string    `bun:",notnull"`
	Score      float64   `bun:",notnull"`
	Rank       int       `bun:",notnull"`
	RecordedAt time.Time `bun:",notnull,default:current_timestamp"`
}

// RankedParticipant is a participant's score and rank in one evaluation pass.
type RankedParticipant struct {
	Email string
	Score float64
	Rank  int
}
