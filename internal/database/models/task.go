package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edithx/rewarder/internal/database/dbretry"
	"github.com/edithx/rewarder/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ErrTaskListNotFound is returned when no task list exists for a week.
var ErrTaskListNotFound = errors.New("task list not found")

// TaskListModel handles database operations for weekly task lists.
type TaskListModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTaskList creates a TaskListModel.
func NewTaskList(db *bun.DB, logger *zap.Logger) *TaskListModel {
	return &TaskListModel{
		db:     db,
		logger: logger.Named("db_task_list"),
	}
}

// GetForWeek returns the task list of the given week.
func (r *TaskListModel) GetForWeek(ctx context.Context, year, week int) (*types.TaskList, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.TaskList, error) {
		var task types.TaskList

		err := r.db.NewSelect().Model(&task).
			Where("year = ?", year).
			Where("week = ?", week).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %d-W%02d", ErrTaskListNotFound, year, week)
			}
			return nil, fmt.Errorf("failed to get task list: %w", err)
		}

		return &task, nil
	})
}
