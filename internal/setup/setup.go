// Package setup bootstraps the application: configuration, loggers, database,
// Redis, metrics and the external API clients.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/edithx/rewarder/internal/ai"
	aiClient "github.com/edithx/rewarder/internal/ai/client"
	"github.com/edithx/rewarder/internal/database"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/ratelimit"
	"github.com/edithx/rewarder/internal/redis"
	"github.com/edithx/rewarder/internal/scoring"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/setup/telemetry"
	"github.com/edithx/rewarder/internal/social"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	StatusClient rueidis.Client     // Redis client for worker status reporting, nil when disabled
	Metrics      *metrics.Metrics   // Prometheus collectors
	AIClient     *aiClient.AIClient // LLM client
	Social       *social.Client     // Social data API client
	LogManager   *telemetry.Manager // Log management system
	metricsSrv   *metrics.Server    // Metrics HTTP endpoint, nil when disabled
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	if configDir == "" {
		logger.Info("No config file found, using defaults and environment")
	} else {
		logger.Info("Loaded config file", zap.String("dir", configDir))
	}

	m := metrics.New()

	var metricsSrv *metrics.Server
	if cfg.Metrics.Address != "" {
		metricsSrv, err = m.Serve(cfg.Metrics.Address, logger)
		if err != nil {
			return nil, err
		}
	}

	redisManager := redis.NewManager(&cfg.Redis, logger)

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}
	if statusClient == nil {
		logger.Info("Redis not configured, worker status reporting disabled")
	}

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger.Named("database"))
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	limiter := ratelimit.New(ratelimit.Config{
		Limit:  cfg.Social.RateLimit,
		Window: cfg.Social.RateWindow,
	}, logger, ratelimit.WithWaitHook(func(key ratelimit.Key, _ time.Duration) {
		m.RateLimitWait(string(key))
	}))

	socialClient := social.NewClient(social.ClientConfig{
		BaseURL:        cfg.Social.BaseURL,
		APIKey:         cfg.Social.APIKey,
		RequestTimeout: cfg.Social.RequestTimeout,
	}, limiter, m, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		Metrics:      m,
		AIClient:     aiClient.NewClient(&cfg.OpenAI, m, logger),
		Social:       socialClient,
		LogManager:   logManager,
		metricsSrv:   metricsSrv,
	}, nil
}

// Fetcher returns the social metrics fetcher for the configured requirements.
func (s *App) Fetcher() *social.Fetcher {
	return social.NewFetcher(s.Social, social.Requirements{
		Mention:         s.Config.Social.RequiredMention,
		LinkDomain:      s.Config.Social.RequiredLinkDomain,
		Hashtags:        s.Config.Social.RequiredHashtags,
		MeaningfulWords: s.Config.Thresholds.MeaningfulCommentWords,
	}, s.Logger)
}

// Scorer returns the LLM content scorer.
func (s *App) Scorer() *ai.ContentScorer {
	return ai.NewContentScorer(s.AIClient.Chat(), &s.Config.OpenAI, s.Metrics, s.Logger)
}

// Evaluator returns the authenticity and score calculator.
func (s *App) Evaluator() *scoring.Evaluator {
	return scoring.New(s.Config.Thresholds, s.Logger)
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if s.metricsSrv != nil {
		if err := s.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.Logger.Error("Failed to shutdown metrics server", zap.Error(err))
		}
	}

	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.RedisManager.Close()

	// Sync buffered logs last so shutdown errors are captured
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}

// String implements fmt.Stringer for startup logs.
func (s *App) String() string {
	return fmt.Sprintf("rewarder(platform=%s, model=%s, redis=%t, metrics=%t)",
		s.Config.Social.Platform, s.Config.OpenAI.Model, s.StatusClient != nil, s.metricsSrv != nil)
}
