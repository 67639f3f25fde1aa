package database

import (
	"github.com/edithx/rewarder/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	evaluation *service.EvaluationService
	reward     *service.RewardService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, logger *zap.Logger) *Service {
	contentModel := repository.Content()
	participantModel := repository.Participant()

	return &Service{
		evaluation: service.NewEvaluation(contentModel, participantModel, repository.TaskList(), logger),
		reward:     service.NewReward(db, contentModel, participantModel, repository.Payout(), logger),
	}
}

// Evaluation returns the evaluation service.
func (s *Service) Evaluation() *service.EvaluationService {
	return s.evaluation
}

// Reward returns the reward service.
func (s *Service) Reward() *service.RewardService {
	return s.reward
}
