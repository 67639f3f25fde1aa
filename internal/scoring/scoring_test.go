package scoring_test

import (
	"testing"
	"time"

	"github.com/edithx/rewarder/internal/scoring"
	"github.com/edithx/rewarder/internal/setup/config"
	"github.com/edithx/rewarder/internal/social"
	"go.uber.org/zap/zaptest"
)

func newEvaluator(t *testing.T) *scoring.Evaluator {
	t.Helper()
	return scoring.New(config.Default().Thresholds, zaptest.NewLogger(t))
}

// validMetrics returns a thread that passes every gate with default thresholds.
func validMetrics() *social.Metrics {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &social.Metrics{
		PostID:             "1",
		Impressions:        500,
		Likes:              50,
		Retweets:           10,
		MeaningfulComments: 15,
		EngagementRate:     15,
		ContentWordCount:   150,
		HasRequiredMention: true,
		HasRequiredLink:    true,
		HasAllHashtags:     true,
		ThreadLength:       5,
		Account: social.Account{
			Followers:      500,
			AccountAgeDays: 200,
			Tweets:         1200,
			HasBio:         true,
			HasAvatar:      true,
		},
		Timeline: []social.EngagementSample{
			{Timestamp: start, Likes: 10, Retweets: 2},
			{Timestamp: start.Add(time.Hour), Likes: 40, Retweets: 8},
		},
	}
}
