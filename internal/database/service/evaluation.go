package service

import (
	"context"
	"time"

	"github.com/edithx/rewarder/internal/database/models"
	"github.com/edithx/rewarder/internal/database/types"
	"go.uber.org/zap"
)

// EvaluationService handles persistence for evaluation passes.
type EvaluationService struct {
	content     *models.ContentModel
	participant *models.ParticipantModel
	task        *models.TaskListModel
	logger      *zap.Logger
}

// NewEvaluation creates a new evaluation service.
func NewEvaluation(
	content *models.ContentModel,
	participant *models.ParticipantModel,
	task *models.TaskListModel,
	logger *zap.Logger,
) *EvaluationService {
	return &EvaluationService{
		content:     content,
		participant: participant,
		task:        task,
		logger:      logger.Named("evaluation_service"),
	}
}

// GetPendingContent returns the pending items submitted before the cutoff.
func (s *EvaluationService) GetPendingContent(ctx context.Context, submittedBefore time.Time) ([]*types.ContentItem, error) {
	return s.content.GetPendingContent(ctx, submittedBefore)
}

// SaveEvaluation stores one evaluation outcome.
func (s *EvaluationService) SaveEvaluation(ctx context.Context, result *types.EvaluationResult) (bool, error) {
	return s.content.SaveEvaluation(ctx, result, time.Now())
}

// GetTaskList returns the task list of the given week.
func (s *EvaluationService) GetTaskList(ctx context.Context, year, week int) (*types.TaskList, error) {
	return s.task.GetForWeek(ctx, year, week)
}

// GetParticipantEmails returns every participant.
func (s *EvaluationService) GetParticipantEmails(ctx context.Context) ([]string, error) {
	return s.participant.GetAllEmails(ctx)
}

// AppendBoard records the ranking of one pass on every participant's board.
func (s *EvaluationService) AppendBoard(ctx context.Context, ranking []types.RankedParticipant) error {
	now := time.Now()

	entries := make([]*types.BoardEntry, len(ranking))
	for i, r := range ranking {
		entries[i] = &types.BoardEntry{
			Email:      r.Email,
			Score:      r.Score,
			Rank:       r.Rank,
			RecordedAt: now,
		}
	}

	if err := s.participant.AppendBoardEntries(ctx, entries); err != nil {
		return err
	}

	s.logger.Debug("Appended board entries", zap.Int("count", len(entries)))

	return nil
}
