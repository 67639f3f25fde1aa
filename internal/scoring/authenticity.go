package scoring

import (
	"math"

	"github.com/edithx/rewarder/internal/social"
)

// Authenticity weights, summing to 100.
const (
	weightAccountAge = 20
	weightEngagement = 25
	weightProfile    = 20
	weightContent    = 20
	weightThread     = 15
)

// targetEngagementRatio is the weighted engagement ratio that earns the full
// engagement sub-score.
const targetEngagementRatio = 0.15

// fullThreadLength is the thread length that earns the full thread sub-score.
const fullThreadLength = 5

// Authenticity returns the composite authenticity score in [0, 100].
func (e *Evaluator) Authenticity(m *social.Metrics) int {
	age := ratio(float64(m.Account.AccountAgeDays), float64(e.thresholds.MinimumAccountAgeDays)) * weightAccountAge

	engagement := EngagementQuality(m) * weightEngagement

	var profile float64
	if m.Account.HasBio {
		profile += 0.5
	}
	if m.Account.HasAvatar {
		profile += 0.5
	}

	var content float64
	if m.ContentWordCount >= e.thresholds.MinimumContentWords {
		content += 0.5
	}
	if m.HasRequiredMention {
		content += 0.25
	}
	if m.HasRequiredLink {
		content += 0.25
	}

	thread := ratio(float64(m.ThreadLength), fullThreadLength) * weightThread

	total := age + engagement + profile*weightProfile + content*weightContent + thread
	return int(math.Floor(total))
}

// EngagementQuality maps engagement relative to reach onto [0, 1]. Replies
// weigh more than retweets, which weigh more than likes. The score grows
// linearly until the weighted ratio reaches 0.15.
func EngagementQuality(m *social.Metrics) float64 {
	if m.Impressions <= 0 {
		return 0
	}

	weighted := float64(m.Likes + 2*m.Retweets + 3*m.MeaningfulComments)
	return ratio(weighted/float64(m.Impressions), targetEngagementRatio)
}

// IsSuspicious reports whether the thread looks like manufactured engagement.
// Accounts below the follower or age minimum are always suspicious. Otherwise
// the timeline is scanned for a like or retweet jump of at least the
// configured delta between two consecutive samples close enough in time.
func (e *Evaluator) IsSuspicious(m *social.Metrics) bool {
	if m.Account.Followers < e.thresholds.MinimumFollowers ||
		m.Account.AccountAgeDays < e.thresholds.MinimumAccountAgeDays {
		return true
	}

	for i := 1; i < len(m.Timeline); i++ {
		prev, cur := m.Timeline[i-1], m.Timeline[i]

		if cur.Timestamp.Sub(prev.Timestamp) > e.thresholds.SuspiciousWindow {
			continue
		}

		if cur.Likes-prev.Likes >= e.thresholds.SuspiciousDelta ||
			cur.Retweets-prev.Retweets >= e.thresholds.SuspiciousDelta {
			return true
		}
	}

	return false
}

// ratio returns value/target clamped to [0, 1]. A non-positive target is
// always met.
func ratio(value, target float64) float64 {
	if target <= 0 {
		return 1
	}
	return math.Max(0, math.Min(value/target, 1))
}
