package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/pkg/utils"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// AIClient wraps the OpenAI client with a circuit breaker and a cap on
// concurrent requests.
type AIClient struct {
	client    *openai.Client
	breaker   *gobreaker.CircuitBreaker
	semaphore *semaphore.Weighted
	retry     utils.RetryOptions
	logger    *zap.Logger
}

// Option customizes an AIClient.
type Option func(*AIClient)

// WithRetryOptions replaces the retry schedule of NewWithRetry.
func WithRetryOptions(opts utils.RetryOptions) Option {
	return func(c *AIClient) {
		c.retry = opts
	}
}

// NewClient creates a new AIClient.
func NewClient(cfg *config.OpenAI, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *AIClient {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.RequestTimeout),
		option.WithMaxRetries(0),
	)

	// Create circuit breaker settings
	settings := gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A filtered completion means the provider is healthy.
			return err == nil || errors.Is(err, ErrContentBlocked)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.BreakerStateChanged(name, from, to)
		},
	}

	c := &AIClient{
		client:    &client,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		semaphore: semaphore.NewWeighted(cfg.MaxConcurrent),
		retry:     utils.GetAIRetryOptions(),
		logger:    logger.Named("ai_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chat returns a ChatCompletions implementation.
func (c *AIClient) Chat() ChatCompletions {
	return &chatCompletions{client: c}
}

// chatCompletions implements the ChatCompletions interface.
type chatCompletions struct {
	client *AIClient
}

// New makes a single chat completion request.
func (c *chatCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if err := c.client.semaphore.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.client.semaphore.Release(1)

	resp, err := c.execute(ctx, params)
	if err != nil {
		if !errors.Is(err, ErrBreakerOpen) && !errors.Is(err, ErrContentBlocked) {
			c.client.logger.Warn("Failed to make request", zap.Error(err))
		}
		return nil, err
	}

	return resp, nil
}

// NewWithRetry makes a chat completion request with retry logic. The
// callback sees every attempt and decides whether its outcome is final.
// An open circuit breaker ends the retries immediately.
func (c *chatCompletions) NewWithRetry(
	ctx context.Context, params openai.ChatCompletionNewParams, callback RetryCallback,
) error {
	if err := c.client.semaphore.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.client.semaphore.Release(1)

	var (
		attempt uint64
		lastErr error
	)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		attempt++

		resp, err := c.execute(ctx, params)
		if err != nil {
			lastErr = err
			switch {
			case errors.Is(err, ErrBreakerOpen), errors.Is(err, ErrContentBlocked):
				return backoff.Permanent(err)
			default:
				c.client.logger.Warn("Failed to make request",
					zap.Error(err),
					zap.String("model", params.Model),
					zap.Uint64("attempt", attempt))
			}
		}

		if cbErr := callback(resp, err); cbErr != nil {
			permanentError := &backoff.PermanentError{}
			if errors.As(cbErr, &permanentError) {
				return cbErr
			}

			c.client.logger.Debug("Callback error, will retry",
				zap.Error(cbErr),
				zap.Uint64("attempt", attempt))
			return cbErr
		}

		return nil
	}

	if err := utils.WithRetry(ctx, operation, c.client.retry); err != nil {
		if lastErr != nil && !errors.Is(err, lastErr) {
			return fmt.Errorf("all retry attempts failed: %w (last error: %w)", err, lastErr)
		}
		return fmt.Errorf("all retry attempts failed: %w", err)
	}

	return nil
}

// execute sends one request through the circuit breaker.
func (c *chatCompletions) execute(
	ctx context.Context, params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	result, err := c.client.breaker.Execute(func() (any, error) {
		resp, err := c.client.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, err
		}
		if err := c.checkFinishReason(resp, params.Model); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrBreakerOpen, err)
		}
		return nil, err
	}

	return result.(*openai.ChatCompletion), nil
}

// checkFinishReason checks whether the response carries a usable completion.
func (c *chatCompletions) checkFinishReason(resp *openai.ChatCompletion, model string) error {
	if resp == nil || len(resp.Choices) == 0 {
		c.client.logger.Warn("Received empty choices", zap.String("model", model))
		return ErrEmptyResponse
	}

	finishReason := resp.Choices[0].FinishReason
	switch finishReason {
	case "stop", "length":
		return nil
	case "content_filter":
		c.client.logger.Warn("Content blocked",
			zap.String("model", model),
			zap.String("finishReason", finishReason))
		return ErrContentBlocked
	default:
		c.client.logger.Warn("Unknown finish reason",
			zap.String("model", model),
			zap.String("finishReason", finishReason))
		return fmt.Errorf("%w: finish reason %q", ErrEmptyResponse, finishReason)
	}
}
