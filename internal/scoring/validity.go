package scoring

import (
	"fmt"

	"github.com/edithx/rewarder/internal/social"
	"go.uber.org/zap"
)

// AccountProblems lists every account requirement the author fails.
func (e *Evaluator) AccountProblems(m *social.Metrics) []string {
	var problems []string

	if m.Account.AccountAgeDays < e.thresholds.MinimumAccountAgeDays {
		problems = append(problems, fmt.Sprintf("account age %d days < required %d days",
			m.Account.AccountAgeDays, e.thresholds.MinimumAccountAgeDays))
	}
	if m.Account.Followers < e.thresholds.MinimumFollowers {
		problems = append(problems, fmt.Sprintf("followers %d < required %d",
			m.Account.Followers, e.thresholds.MinimumFollowers))
	}
	if m.Account.Tweets < e.thresholds.MinimumTweets {
		problems = append(problems, fmt.Sprintf("tweet count %d < required %d",
			m.Account.Tweets, e.thresholds.MinimumTweets))
	}
	if !m.Account.HasBio {
		problems = append(problems, "missing bio")
	}
	if !m.Account.HasAvatar {
		problems = append(problems, "missing profile picture")
	}

	return problems
}

// ContentProblems lists every content requirement the thread fails.
func (e *Evaluator) ContentProblems(m *social.Metrics) []string {
	var problems []string

	if m.ContentWordCount < e.thresholds.MinimumContentWords {
		problems = append(problems, fmt.Sprintf("word count %d < required %d",
			m.ContentWordCount, e.thresholds.MinimumContentWords))
	}
	if !m.HasRequiredMention {
		problems = append(problems, "missing required mention")
	}
	if !m.HasRequiredLink {
		problems = append(problems, "missing required link")
	}
	if !m.HasAllHashtags {
		problems = append(problems, "missing required hashtags")
	}
	if m.ThreadLength < 1 {
		problems = append(problems, "empty thread")
	}

	return problems
}

// IsValid is the hard gate applied before any scoring. Both the account and
// the content requirements must hold. Failed account requirements are logged
// individually.
func (e *Evaluator) IsValid(m *social.Metrics) bool {
	if problems := e.AccountProblems(m); len(problems) > 0 {
		e.logger.Info("Account validation failed",
			zap.String("postID", m.PostID),
			zap.Strings("reasons", problems))
		return false
	}

	if problems := e.ContentProblems(m); len(problems) > 0 {
		e.logger.Debug("Content validation failed",
			zap.String("postID", m.PostID),
			zap.Strings("reasons", problems))
		return false
	}

	return true
}
