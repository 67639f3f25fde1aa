package scoring_test

import (
	"testing"

	"github.com/edithx/rewarder/internal/scoring"
	"github.com/edithx/rewarder/internal/social"
	"github.com/stretchr/testify/assert"
)

func TestPerformancePoints(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)

	tests := []struct {
		name        string
		rate        float64
		impressions int
		want        int
	}{
		{name: "rate of 5 caps engagement at 30", rate: 5.0, impressions: 0, want: 30},
		{name: "50 impressions earn 10 reach", rate: 0, impressions: 50, want: 10},
		{name: "both capped", rate: 12.5, impressions: 5000, want: 50},
		{name: "fractional rate is floored", rate: 1.29, impressions: 7, want: 12 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &social.Metrics{EngagementRate: tt.rate, Impressions: tt.impressions}
			assert.Equal(t, tt.want, e.PerformancePoints(m))
		})
	}
}

func TestBonusPoints(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)

	tests := []struct {
		name         string
		impressions  int
		llm          int
		authenticity int
		want         int
	}{
		{name: "all bonuses cap exactly at 50", impressions: 1001, llm: 91, authenticity: 91, want: 50},
		{name: "nothing", impressions: 500, llm: 80, authenticity: 80, want: 0},
		{name: "exactly ten times minimum is the lower viral tier", impressions: 1000, want: 15},
		{name: "just over five times minimum", impressions: 501, want: 15},
		{name: "quality of exactly 90 is the lower tier", llm: 90, want: 10},
		{name: "authenticity of exactly 90 is the lower tier", authenticity: 90, want: 5},
		{name: "mixed", impressions: 600, llm: 95, authenticity: 85, want: 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &social.Metrics{Impressions: tt.impressions}
			assert.Equal(t, tt.want, e.BonusPoints(m, tt.llm, tt.authenticity))
		})
	}
}

func TestFinalScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)
	m := validMetrics()

	first := e.FinalScore(72, m, 88)
	second := e.FinalScore(72, m, 88)

	assert.Equal(t, first, second)
	assert.InDelta(t, float64(first.Base+first.Performance+first.Quality+first.Bonus), first.Total, 0)
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)

	m := validMetrics()
	m.EngagementRate = social.EngagementRate(m.Likes, m.Retweets, m.MeaningfulComments, m.Impressions)

	approved, reasons := e.Approve(85, m, 92, e.IsSuspicious(m))
	assert.True(t, approved)
	assert.Empty(t, reasons)

	score := e.FinalScore(85, m, 92)
	assert.Equal(t, scoring.Breakdown{
		Base:        5,
		Performance: 30 + 20,
		Quality:     25,
		// No viral bonus at exactly 500 impressions, 10 for quality 85, 10 for authenticity 92.
		Bonus: 20,
		Total: 100,
	}, score)
}

func TestApplyTaskWeight(t *testing.T) {
	t.Parallel()

	b := scoring.Breakdown{Base: 5, Performance: 10, Quality: 20, Bonus: 5, Total: 40}

	weighted := scoring.ApplyTaskWeight(b, 1.5)
	assert.InDelta(t, 60.0, weighted.Total, 0)
	assert.Equal(t, 40, weighted.Sum(), "components are untouched")
}

func TestApprove(t *testing.T) {
	t.Parallel()

	e := newEvaluator(t)

	tests := []struct {
		name         string
		llm          int
		authenticity int
		suspicious   bool
		modify       func(m *social.Metrics)
	}{
		{name: "low quality", llm: 29, authenticity: 90},
		{name: "low authenticity", llm: 50, authenticity: 69},
		{name: "suspicious", llm: 50, authenticity: 90, suspicious: true},
		{name: "few impressions", llm: 50, authenticity: 90, modify: func(m *social.Metrics) { m.Impressions = 99 }},
		{name: "few retweets", llm: 50, authenticity: 90, modify: func(m *social.Metrics) { m.Retweets = 2 }},
		{name: "few comments", llm: 50, authenticity: 90, modify: func(m *social.Metrics) { m.MeaningfulComments = 9 }},
		{name: "few likes", llm: 50, authenticity: 90, modify: func(m *social.Metrics) { m.Likes = 9 }},
		{name: "missing hashtags", llm: 50, authenticity: 90, modify: func(m *social.Metrics) { m.HasAllHashtags = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := validMetrics()
			if tt.modify != nil {
				tt.modify(m)
			}

			approved, reasons := e.Approve(tt.llm, m, tt.authenticity, tt.suspicious)
			assert.False(t, approved)
			assert.Len(t, reasons, 1)
		})
	}

	approved, _ := e.Approve(30, validMetrics(), 70, false)
	assert.True(t, approved, "thresholds are inclusive")
}
