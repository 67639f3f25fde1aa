// Package scoring holds the pure scoring rules applied to a fetched thread:
// the authenticity score, the suspicious engagement check, the validity gate,
// the point breakdown and the approval gate.
package scoring

import (
	"github.com/edithx/rewarder/internal/setup/config"
	"go.uber.org/zap"
)

// Evaluator applies the scoring rules against a fixed set of thresholds.
// It performs no I/O apart from logging and is safe for concurrent use.
type Evaluator struct {
	thresholds config.Thresholds
	logger     *zap.Logger
}

// New creates a new Evaluator.
func New(thresholds config.Thresholds, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		logger:     logger.Named("scoring"),
	}
}

// Thresholds returns the thresholds the evaluator was built with.
func (e *Evaluator) Thresholds() config.Thresholds {
	return e.thresholds
}
