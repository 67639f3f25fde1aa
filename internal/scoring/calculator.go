package scoring

import (
	"fmt"
	"math"

	"github.com/edithx/rewarder/internal/social"
)

// Point caps of the breakdown.
const (
	BasePoints        = 5
	maxEngagement     = 30
	maxReach          = 20
	qualityMultiplier = 0.3
	maxBonus          = 50
)

// Breakdown is the point breakdown of one content item.
type Breakdown struct {
	Base        int
	Performance int
	Quality     int
	Bonus       int
	Total       float64
}

// Sum returns the unweighted total of the components.
func (b Breakdown) Sum() int {
	return b.Base + b.Performance + b.Quality + b.Bonus
}

// FinalScore computes the point breakdown of an item. It is deterministic and
// the total always equals the sum of the components.
func (e *Evaluator) FinalScore(llmScore int, m *social.Metrics, authenticity int) Breakdown {
	b := Breakdown{
		Base:        BasePoints,
		Performance: e.PerformancePoints(m),
		Quality:     int(math.Floor(float64(llmScore) * qualityMultiplier)),
		Bonus:       e.BonusPoints(m, llmScore, authenticity),
	}
	b.Total = float64(b.Sum())
	return b
}

// PerformancePoints scores engagement rate (up to 30) and reach (up to 20).
func (e *Evaluator) PerformancePoints(m *social.Metrics) int {
	engagement := min(maxEngagement, int(math.Floor(m.EngagementRate*10)))

	reach := maxReach
	if e.thresholds.MinimumImpressions > 0 {
		reach = min(maxReach, int(math.Floor(float64(m.Impressions)*maxReach/float64(e.thresholds.MinimumImpressions))))
	}

	return max(0, engagement) + max(0, reach)
}

// BonusPoints awards viral, quality and authenticity bonuses, capped at 50.
// Every boundary is strict: reaching a threshold exactly earns nothing.
func (e *Evaluator) BonusPoints(m *social.Metrics, llmScore int, authenticity int) int {
	var bonus int

	minImpressions := e.thresholds.MinimumImpressions
	switch {
	case m.Impressions > 10*minImpressions:
		bonus += 25
	case m.Impressions > 5*minImpressions:
		bonus += 15
	}

	switch {
	case llmScore > 90:
		bonus += 15
	case llmScore > 80:
		bonus += 10
	}

	switch {
	case authenticity > 90:
		bonus += 10
	case authenticity > 80:
		bonus += 5
	}

	return min(maxBonus, bonus)
}

// ApplyTaskWeight multiplies the total by the weekly task weight.
func ApplyTaskWeight(b Breakdown, weight float64) Breakdown {
	b.Total *= weight
	return b
}

// Approve applies the approval gate. It returns whether the item is approved
// and, when it is not, every reason it failed.
func (e *Evaluator) Approve(llmScore int, m *social.Metrics, authenticity int, suspicious bool) (bool, []string) {
	t := e.thresholds
	var reasons []string

	if llmScore < t.MinimumScore {
		reasons = append(reasons, fmt.Sprintf("quality score %d < %d", llmScore, t.MinimumScore))
	}
	if m.Impressions < t.MinimumImpressions {
		reasons = append(reasons, fmt.Sprintf("impressions %d < %d", m.Impressions, t.MinimumImpressions))
	}
	if m.Retweets < t.MinimumRetweets {
		reasons = append(reasons, fmt.Sprintf("retweets %d < %d", m.Retweets, t.MinimumRetweets))
	}
	if m.MeaningfulComments < t.MinimumMeaningfulComments {
		reasons = append(reasons, fmt.Sprintf("meaningful comments %d < %d",
			m.MeaningfulComments, t.MinimumMeaningfulComments))
	}
	if m.Likes < t.MinimumLikes {
		reasons = append(reasons, fmt.Sprintf("likes %d < %d", m.Likes, t.MinimumLikes))
	}
	if authenticity < t.MinimumAuthenticity {
		reasons = append(reasons, fmt.Sprintf("authenticity %d < %d", authenticity, t.MinimumAuthenticity))
	}
	if !m.HasAllHashtags {
		reasons = append(reasons, "missing required hashtags")
	}
	if suspicious {
		reasons = append(reasons, "suspicious engagement")
	}

	return len(reasons) == 0, reasons
}
