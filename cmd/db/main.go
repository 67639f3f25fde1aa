package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/edithx/rewarder/cmd/db/commands"
	"github.com/edithx/rewarder/internal/database"
	"github.com/edithx/rewarder/internal/database/migrations"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup dependencies: %w", err)
	}
	defer deps.DB.Close()
	defer deps.Logger.Sync() //nolint:errcheck // -

	app := &cli.Command{
		Name:     "db",
		Usage:    "Database management tool",
		Commands: commands.MigrationCommands(deps),
	}

	return app.Run(ctx, os.Args)
}

// setupDependencies connects to the database and builds the migrator.
func setupDependencies(ctx context.Context) (*commands.CLIDependencies, error) {
	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Migrations are driven explicitly by this tool.
	cfg.AutoMigrate = false

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)

	return &commands.CLIDependencies{
		DB:       db,
		Migrator: migrator,
		Logger:   logger,
	}, nil
}
