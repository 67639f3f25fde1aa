// Package commands implements the subcommands of the database tool.
package commands

import (
	"errors"

	"github.com/edithx/rewarder/internal/database"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var (
	// ErrNameRequired is returned when a command is missing its NAME argument.
	ErrNameRequired = errors.New("NAME argument required")
	// ErrInvalidName is returned when a migration name cannot be normalized.
	ErrInvalidName = errors.New("migration name must start with a letter and have 3 to 63 characters")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	DB       database.Client
	Migrator *migrate.Migrator
	Logger   *zap.Logger
}
