package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// migrationNamePattern is the accepted form of a migration name after normalization.
var migrationNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{2,62}$`)

// nonNameChars matches runs of characters that become a single underscore.
var nonNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// MigrationCommands returns the schema commands for content, participant and payout tables.
func MigrationCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Create the bun migration bookkeeping tables",
			Action: handleInit(deps),
		},
		{
			Name:  "migrate",
			Usage: "Apply pending schema migrations",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "dry-run",
					Usage: "List pending migrations without applying them",
				},
			},
			Action: handleMigrate(deps),
		},
		{
			Name:   "rollback",
			Usage:  "Revert the most recently applied migration group",
			Action: handleRollback(deps),
		},
		{
			Name:   "status",
			Usage:  "List every migration with its applied state",
			Action: handleStatus(deps),
		},
		{
			Name:      "create",
			Usage:     "Scaffold a Go migration in internal/database/migrations",
			ArgsUsage: "NAME (for example \"add payout run index\")",
			Action:    handleCreate(deps),
		},
	}
}

func handleInit(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to create migration tables: %w", err)
		}

		deps.Logger.Info("Migration tables ready")
		return nil
	}
}

// handleMigrate applies pending migrations under the migration lock, or only
// lists them with --dry-run.
func handleMigrate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if err := deps.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to create migration tables: %w", err)
		}

		if c.Bool("dry-run") {
			ms, err := deps.Migrator.MigrationsWithStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to read migration status: %w", err)
			}

			pending := ms.Unapplied()
			for _, m := range pending {
				deps.Logger.Info("Pending migration", zap.String("name", m.Name), zap.String("comment", m.Comment))
			}
			deps.Logger.Info("Dry run finished", zap.Int("pending", len(pending)))
			return nil
		}

		if err := deps.Migrator.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		if group.IsZero() {
			deps.Logger.Info("Schema is up to date")
			return nil
		}

		logGroup(deps.Logger, "Applied migration", group)
		deps.Logger.Info("Migration group applied",
			zap.Int64("group", group.ID),
			zap.Int("count", len(group.Migrations)))

		return nil
	}
}

// handleRollback reverts the last migration group under the migration lock.
func handleRollback(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if err := deps.Migrator.Lock(ctx); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer deps.Migrator.Unlock(ctx) //nolint:errcheck // -

		group, err := deps.Migrator.Rollback(ctx)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}

		if group.IsZero() {
			deps.Logger.Info("Nothing to roll back")
			return nil
		}

		logGroup(deps.Logger, "Reverted migration", group)
		deps.Logger.Warn("Migration group reverted",
			zap.Int64("group", group.ID),
			zap.Int("count", len(group.Migrations)))

		return nil
	}
}

func handleStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		ms, err := deps.Migrator.MigrationsWithStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		for _, m := range ms {
			fields := []zap.Field{
				zap.String("name", m.Name),
				zap.Bool("applied", m.IsApplied()),
			}
			if m.IsApplied() {
				fields = append(fields,
					zap.Int64("group", m.GroupID),
					zap.Time("migratedAt", m.MigratedAt))
			}
			deps.Logger.Info("Migration", fields...)
		}

		deps.Logger.Info("Migration status",
			zap.Int("total", len(ms)),
			zap.Int("pending", len(ms.Unapplied())),
			zap.String("lastGroup", ms.LastGroup().String()))

		return nil
	}
}

func handleCreate(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() == 0 {
			return ErrNameRequired
		}

		name, err := MigrationName(strings.Join(c.Args().Slice(), " "))
		if err != nil {
			return err
		}

		mf, err := deps.Migrator.CreateGoMigration(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create migration %q: %w", name, err)
		}

		deps.Logger.Info("Created migration; register its tables in both directions before applying",
			zap.String("name", mf.Name),
			zap.String("path", mf.Path))

		return nil
	}
}

// MigrationName normalizes a free-form description into the snake_case name
// used for migration files, e.g. "Add payout run index" becomes
// "add_payout_run_index".
func MigrationName(input string) (string, error) {
	name := nonNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "_")
	name = strings.Trim(name, "_")

	if !migrationNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, input)
	}

	return name, nil
}

func logGroup(logger *zap.Logger, msg string, group *migrate.MigrationGroup) {
	for _, m := range group.Migrations {
		logger.Info(msg, zap.String("name", m.Name), zap.Int64("group", group.ID))
	}
}
