package client

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
)

var (
	// ErrContentBlocked is returned when the provider filtered the completion.
	ErrContentBlocked = errors.New("content blocked by provider")
	// ErrEmptyResponse is returned when the completion carries no usable choice.
	ErrEmptyResponse = errors.New("empty completion response")
	// ErrBreakerOpen is returned without calling the provider while the circuit breaker is open.
	ErrBreakerOpen = errors.New("circuit breaker is open")
)

// RetryCallback inspects each attempt's outcome. Returning an error retries
// the request unless the error is permanent.
type RetryCallback func(resp *openai.ChatCompletion, err error) error

// ChatCompletions provides chat completion methods.
type ChatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	NewWithRetry(ctx context.Context, params openai.ChatCompletionNewParams, callback RetryCallback) error
}
