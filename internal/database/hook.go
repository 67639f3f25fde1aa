package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Hook implements bun.QueryHook interface for logging queries with zap.
// Failed queries log at error level and queries slower than the threshold at
// warn level.
type Hook struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// NewHook creates a new Hook. A zero threshold disables slow query warnings.
func NewHook(logger *zap.Logger, slowThreshold time.Duration) *Hook {
	return &Hook{
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

// BeforeQuery implements bun.QueryHook.
func (h *Hook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery logs the query and its execution time.
func (h *Hook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	switch {
	case event.Err != nil && !isExpected(event.Err):
		h.logger.Error("Query failed",
			zap.String("query", event.Query),
			zap.Duration("duration", duration),
			zap.Error(event.Err))
	case h.slowThreshold > 0 && duration > h.slowThreshold:
		h.logger.Warn("Slow query",
			zap.String("query", event.Query),
			zap.Duration("duration", duration))
	default:
		h.logger.Debug("Query executed",
			zap.String("query", event.Query),
			zap.Duration("duration", duration))
	}
}

// isExpected reports whether a query error is part of normal control flow.
func isExpected(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
