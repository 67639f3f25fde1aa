package database

import (
	"github.com/edithx/rewarder/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	content     *models.ContentModel
	participant *models.ParticipantModel
	taskList    *models.TaskListModel
	payout      *models.PayoutModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		content:     models.NewContent(db, logger),
		participant: models.NewParticipant(db, logger),
		taskList:    models.NewTaskList(db, logger),
		payout:      models.NewPayout(db, logger),
	}
}

// Content returns the content model repository.
func (r *Repository) Content() *models.ContentModel {
	return r.content
}

// Participant returns the participant model repository.
func (r *Repository) Participant() *models.ParticipantModel {
	return r.participant
}

// TaskList returns the task list model repository.
func (r *Repository) TaskList() *models.TaskListModel {
	return r.taskList
}

// Payout returns the payout model repository.
func (r *Repository) Payout() *models.PayoutModel {
	return r.payout
}
