package social

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/ratelimit"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrUnexpectedStatus is returned when the API responds with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrEmptyThread is returned when the thread endpoint returns no posts.
	ErrEmptyThread = errors.New("thread has no posts")
)

const (
	endpointThread   = "thread"
	endpointComments = "comments"
)

// ClientConfig holds the connection settings of the social data API.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// Client calls the social data API. Every request is admitted by the shared
// rate limiter and passes through a circuit breaker.
type Client struct {
	http    *http.Client
	config  ClientConfig
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient creates a new social data API client.
func NewClient(
	config ClientConfig, limiter *ratelimit.Limiter, m *metrics.Metrics, logger *zap.Logger,
) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "social",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			m.BreakerStateChanged(name, from, to)
		},
	})

	return &Client{
		http:    &http.Client{Timeout: config.RequestTimeout},
		config:  config,
		limiter: limiter,
		breaker: breaker,
		metrics: m,
		logger:  logger.Named("social_client"),
	}
}

// GetThread fetches every post of the thread started by postID.
func (c *Client) GetThread(ctx context.Context, postID string) ([]Post, error) {
	posts, err := c.getPosts(ctx, endpointThread, "/twitter/thread/"+postID)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyThread, postID)
	}
	return posts, nil
}

// GetComments fetches the replies to postID.
func (c *Client) GetComments(ctx context.Context, postID string) ([]Post, error) {
	return c.getPosts(ctx, endpointComments, "/twitter/tweets/"+postID+"/comments")
}

// getPosts performs one rate limited GET and decodes a post list.
func (c *Client) getPosts(ctx context.Context, endpoint, path string) ([]Post, error) {
	if err := c.limiter.Acquire(ctx, ratelimit.KeySocialAPI); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, path)
	})
	c.metrics.SocialRequest(endpoint, err)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}

	return result.([]Post), nil
}

func (c *Client) do(ctx context.Context, path string) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var list PostList
	if err := sonic.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return list.Tweets, nil
}
