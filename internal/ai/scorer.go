package ai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/edithx/rewarder/internal/ai/client"
	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/pkg/utils"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

// ErrInvalidLLMResponse is returned when the model answers outside the expected format.
var ErrInvalidLLMResponse = errors.New("invalid LLM response")

const (
	kindQuality     = "quality"
	kindRelatedness = "relatedness"
)

// ContentScorer asks the LLM for a quality score and a relatedness verdict.
// Neither call ever fails: errors and malformed answers degrade to a score
// of 0 and "not related".
type ContentScorer struct {
	chat        client.ChatCompletions
	model       string
	temperature float64
	maxTokens   int64
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewContentScorer creates a new content scorer.
func NewContentScorer(
	chat client.ChatCompletions, cfg *config.OpenAI, m *metrics.Metrics, logger *zap.Logger,
) *ContentScorer {
	return &ContentScorer{
		chat:        chat,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		metrics:     m,
		logger:      logger.Named("ai_scorer"),
	}
}

// QualityScore rates the thread text from 0 to 100.
func (s *ContentScorer) QualityScore(ctx context.Context, texts []string) int {
	var score int

	err := s.complete(ctx, kindQuality, QualitySystemPrompt, texts, func(answer string) error {
		value, err := strconv.Atoi(answer)
		if err != nil || value < 0 || value > 100 {
			return fmt.Errorf("%w: %q", ErrInvalidLLMResponse, answer)
		}
		score = value
		return nil
	})
	if err != nil {
		return 0
	}

	return score
}

// IsRelated reports whether the thread text relates to the task title.
func (s *ContentScorer) IsRelated(ctx context.Context, texts []string, taskTitle string) bool {
	var related bool

	prompt := fmt.Sprintf(RelatednessSystemPrompt, taskTitle)
	err := s.complete(ctx, kindRelatedness, prompt, texts, func(answer string) error {
		switch strings.ToLower(strings.TrimRight(answer, ".!")) {
		case "yes":
			related = true
		case "no":
			related = false
		default:
			return fmt.Errorf("%w: %q", ErrInvalidLLMResponse, answer)
		}
		return nil
	})
	if err != nil {
		return false
	}

	return related
}

// complete sends the thread text under the given system prompt and hands the
// trimmed answer to parse. Transport failures are retried; a malformed answer
// is final.
func (s *ContentScorer) complete(
	ctx context.Context, kind, systemPrompt string, texts []string, parse func(answer string) error,
) error {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(utils.CompressWhitespacePreserveNewlines(strings.Join(texts, "\n"))),
		},
		Model:               s.model,
		Temperature:         openai.Float(s.temperature),
		MaxCompletionTokens: openai.Int(s.maxTokens),
	}

	err := s.chat.NewWithRetry(ctx, params, func(resp *openai.ChatCompletion, err error) error {
		if err != nil {
			return err
		}

		answer := strings.TrimSpace(resp.Choices[0].Message.Content)
		if parseErr := parse(answer); parseErr != nil {
			return backoff.Permanent(parseErr)
		}
		return nil
	})

	switch {
	case err == nil:
		s.metrics.LLMRequest(kind, "success")
	case errors.Is(err, ErrInvalidLLMResponse):
		s.metrics.LLMRequest(kind, "invalid")
		s.logger.Warn("Invalid LLM answer, using fail-safe value",
			zap.String("kind", kind),
			zap.Error(err))
	case errors.Is(err, client.ErrBreakerOpen):
		s.metrics.LLMRequest(kind, "unavailable")
		s.logger.Warn("LLM unavailable, using fail-safe value", zap.String("kind", kind))
	default:
		s.metrics.LLMRequest(kind, "error")
		s.logger.Error("LLM request failed, using fail-safe value",
			zap.String("kind", kind),
			zap.Error(err))
	}

	return err
}
