package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edithx/rewarder/internal/database/dbretry"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrParticipantNotFound is returned when no participant matches the lookup.
var ErrParticipantNotFound = errors.New("participant not found")

// ParticipantModel handles database operations for participants, their
// accumulated rewards and their board history.
type ParticipantModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewParticipant creates a ParticipantModel.
func NewParticipant(db *bun.DB, logger *zap.Logger) *ParticipantModel {
	return &ParticipantModel{
		db:     db,
		logger: logger.Named("db_participant"),
	}
}

// GetAllEmails returns the email of every participant.
func (r *ParticipantModel) GetAllEmails(ctx context.Context) ([]string, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]string, error) {
		var emails []string

		err := r.db.NewSelect().
			Model((*types.Participant)(nil)).
			Column("email").
			Order("email ASC").
			Scan(ctx, &emails)
		if err != nil {
			return nil, fmt.Errorf("failed to get participants: %w", err)
		}

		return emails, nil
	})
}

// GetParticipantsWithTx returns the participants with the given emails, keyed by email.
func (r *ParticipantModel) GetParticipantsWithTx(
	ctx context.Context, tx bun.IDB, emails []string,
) (map[string]*types.Participant, error) {
	result := make(map[string]*types.Participant, len(emails))
	if len(emails) == 0 {
		return result, nil
	}

	var participants []*types.Participant
	err := tx.NewSelect().Model(&participants).
		Where("email IN (?)", bun.In(emails)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	for _, p := range participants {
		result[p.Email] = p
	}

	return result, nil
}

// GetByInviteCodeWithTx returns the participant owning an invite code.
func (r *ParticipantModel) GetByInviteCodeWithTx(ctx context.Context, tx bun.IDB, code string) (*types.Participant, error) {
	var participant types.Participant

	err := tx.NewSelect().Model(&participant).
		Where("invite_code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invite code %s", ErrParticipantNotFound, code)
		}
		return nil, fmt.Errorf("failed to get participant by invite code: %w", err)
	}

	return &participant, nil
}

// GetTotalRewardsWithTx returns the accumulated reward on platform for each
// email. Participants never rewarded are absent from the map.
func (r *ParticipantModel) GetTotalRewardsWithTx(
	ctx context.Context, tx bun.IDB, emails []string, platform string,
) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(emails))
	if len(emails) == 0 {
		return result, nil
	}

	var rewards []*types.ParticipantReward
	err := tx.NewSelect().Model(&rewards).
		Where("email IN (?)", bun.In(emails)).
		Where("platform = ?", platform).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rewards: %w", err)
	}

	for _, reward := range rewards {
		result[reward.Email] = reward.TotalReward
	}

	return result, nil
}

// IncrementRewardWithTx adds amount to the participant's accumulated reward,
// creating the row when needed.
func (r *ParticipantModel) IncrementRewardWithTx(
	ctx context.Context, tx bun.IDB, email, platform string, amount decimal.Decimal, at time.Time,
) error {
	reward := &types.ParticipantReward{
		Email:       email,
		Platform:    platform,
		TotalReward: amount,
		UpdatedAt:   at,
	}

	_, err := tx.NewInsert().Model(reward).
		On("CONFLICT (email, platform) DO UPDATE").
		Set("total_reward = participant_reward.total_reward + EXCLUDED.total_reward").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment reward: %w (email=%s)", err, email)
	}

	return nil
}

// IncrementInvitesUsedWithTx counts one more used invite for the participant.
func (r *ParticipantModel) IncrementInvitesUsedWithTx(ctx context.Context, tx bun.IDB, email string) error {
	_, err := tx.NewUpdate().
		Model((*types.Participant)(nil)).
		Set("invites_used = invites_used + 1").
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment invites used: %w (email=%s)", err, email)
	}
	return nil
}

// AppendBoardEntries records one board snapshot per participant.
func (r *ParticipantModel) AppendBoardEntries(ctx context.Context, entries []*types.BoardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(&entries).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append board entries: %w", err)
		}
		return nil
	})
}

// ClearBoardWithTx removes the board history of the given participants.
func (r *ParticipantModel) ClearBoardWithTx(ctx context.Context, tx bun.IDB, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	_, err := tx.NewDelete().
		Model((*types.BoardEntry)(nil)).
		Where("email IN (?)", bun.In(emails)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear board: %w", err)
	}
	return nil
}
