package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/edithx/rewarder/internal/database/types/enum"
	"github.com/edithx/rewarder/internal/scheduler"
	"github.com/edithx/rewarder/internal/setup"
	"github.com/edithx/rewarder/internal/setup/telemetry"
	"github.com/edithx/rewarder/internal/worker/core"
	"github.com/edithx/rewarder/internal/worker/evaluation"
	"github.com/edithx/rewarder/internal/worker/reward"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// WorkerType identifies this process in worker status reports.
	WorkerType = "rewarder"

	// shutdownTimeout bounds how long a running job may take to stop.
	shutdownTimeout = 2 * time.Minute
)

// ErrRedisDisabled is returned by commands that need Redis when it is not configured.
var ErrRedisDisabled = errors.New("redis is not configured")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "worker",
		Usage: "Evaluate submitted content and distribute rewards",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Start the scheduler running both jobs on their cron schedules",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, runScheduler)
				},
			},
			{
				Name:  "evaluate",
				Usage: "Run one evaluation pass and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, func(ctx context.Context, w *worker) error {
						return w.scheduler.RunEvaluation(ctx)
					})
				},
			},
			{
				Name:  "distribute",
				Usage: "Distribute rewards, archive stale content and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, func(ctx context.Context, w *worker) error {
						return w.scheduler.RunDistribution(ctx)
					})
				},
			},
			{
				Name:  "archive",
				Usage: "Archive stale approved content and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, func(ctx context.Context, w *worker) error {
						_, err := w.distributor.Archive(ctx)
						return err
					})
				},
			},
			{
				Name:  "payouts",
				Usage: "Print the ledger of one distribution run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "run",
						Usage:    "Run ID printed by the distribution",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					runID, err := uuid.Parse(c.String("run"))
					if err != nil {
						return fmt.Errorf("invalid run ID: %w", err)
					}

					return withApp(ctx, func(ctx context.Context, w *worker) error {
						return printPayouts(ctx, w, runID)
					})
				},
			},
			{
				Name:  "status",
				Usage: "Print worker heartbeats and the last run of each job",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return withApp(ctx, printStatus)
				},
			},
		},
	}

	return app.Run(ctx, os.Args)
}

// worker bundles the wired components of one process.
type worker struct {
	app         *setup.App
	reporter    *core.StatusReporter
	distributor *reward.Distributor
	scheduler   *scheduler.Scheduler
}

// withApp initializes the application, wires the jobs and runs fn.
func withApp(ctx context.Context, fn func(ctx context.Context, w *worker) error) error {
	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	w, err := newWorker(app)
	if err != nil {
		return err
	}

	if err := fn(ctx, w); err != nil {
		app.Logger.Error("Command failed", zap.Error(err))
		return err
	}

	return nil
}

func newWorker(app *setup.App) (*worker, error) {
	cfg := app.Config

	location, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	reporter := core.NewStatusReporter(app.StatusClient, WorkerType, app.Logger)

	orchestrator := evaluation.New(
		app.DB.Service().Evaluation(),
		app.Fetcher(),
		app.Scorer(),
		app.Evaluator(),
		cfg.Evaluation,
		app.Logger,
		evaluation.WithLocation(location),
		evaluation.WithMetrics(app.Metrics),
		evaluation.WithReporter(reporter),
	)

	distributor := reward.New(
		reward.NewStore(app.DB.Service().Reward()),
		cfg.Reward,
		cfg.Social.Platform,
		app.Logger,
		reward.WithMetrics(app.Metrics),
		reward.WithReporter(reporter),
	)

	s, err := scheduler.New(orchestrator, distributor, cfg.Schedule, app.Logger,
		scheduler.WithMetrics(app.Metrics),
		scheduler.WithReporter(reporter),
	)
	if err != nil {
		return nil, err
	}

	return &worker{
		app:         app,
		reporter:    reporter,
		distributor: distributor,
		scheduler:   s,
	}, nil
}

// runScheduler runs both jobs until the process is signalled.
func runScheduler(ctx context.Context, w *worker) error {
	w.app.Logger.Info("Worker started",
		zap.String("workerID", w.reporter.GetWorkerID()),
		zap.Stringer("app", w.app))

	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	w.scheduler.Start(ctx)

	<-ctx.Done()
	w.app.Logger.Info("Shutting down, waiting for running job")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return w.scheduler.Stop(stopCtx)
}

func printPayouts(ctx context.Context, w *worker, runID uuid.UUID) error {
	payouts, err := w.distributor.Payouts(ctx, runID)
	if err != nil {
		return err
	}

	if len(payouts) == 0 {
		fmt.Printf("No payouts recorded for run %s\n", runID)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tKIND\tTIER\tSCORE\tAMOUNT\tCREATED")

	for _, p := range payouts {
		tier := ""
		if p.Kind == enum.PayoutKindTier {
			tier = p.Tier.String()
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			p.Email, p.Kind, tier, p.Score, p.Amount.StringFixed(8), p.CreatedAt.Format(time.RFC3339))
	}

	return tw.Flush()
}

func printStatus(ctx context.Context, w *worker) error {
	if w.app.StatusClient == nil {
		return ErrRedisDisabled
	}

	monitor := core.NewMonitor(w.app.StatusClient, w.app.Logger)

	statuses, err := monitor.GetAllStatuses(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tTYPE\tHEALTHY\tTASK\tPROGRESS\tLAST SEEN")

	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%d%%\t%s\n",
			s.WorkerID, s.WorkerType, s.IsHealthy, s.CurrentTask, s.Progress, s.LastSeen.Format(time.RFC3339))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "JOB\tSTARTED\tFINISHED\tERROR\tSUMMARY")

	for _, job := range []string{scheduler.JobEvaluate, scheduler.JobDistribute} {
		record, err := monitor.GetLastRun(ctx, job)
		if err != nil {
			return err
		}

		if record == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\tnever run\n", job)
			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", job,
			record.StartedAt.Format(time.RFC3339), record.FinishedAt.Format(time.RFC3339),
			record.Error, record.Summary)
	}

	return tw.Flush()
}
