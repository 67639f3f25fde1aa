package social

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/edithx/rewarder/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// API is the subset of the social data API used by the fetcher.
type API interface {
	GetThread(ctx context.Context, postID string) ([]Post, error)
	GetComments(ctx context.Context, postID string) ([]Post, error)
}

// Fetcher turns a post URL into a normalized Metrics record.
type Fetcher struct {
	api          API
	requirements Requirements
	now          func() time.Time
	logger       *zap.Logger
}

// NewFetcher creates a new metrics fetcher.
func NewFetcher(api API, requirements Requirements, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		api:          api,
		requirements: requirements,
		now:          time.Now,
		logger:       logger.Named("social_fetcher"),
	}
}

// WithClock replaces the clock used to compute account age.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// FetchMetrics fetches the thread behind url along with the replies to each
// of its posts and aggregates them. Any request or decode failure returns an
// error and no metrics; callers skip the item and retry it on a later pass.
func (f *Fetcher) FetchMetrics(ctx context.Context, url string) (*Metrics, error) {
	postID, err := ExtractPostID(url)
	if err != nil {
		return nil, err
	}

	posts, err := f.api.GetThread(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := f.countMeaningfulComments(ctx, posts)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		PostID:             postID,
		MeaningfulComments: comments,
		ThreadLength:       len(posts),
		FullText:           make([]string, 0, len(posts)),
		Timeline:           make([]EngagementSample, 0, len(posts)),
	}

	hashtags := make(map[string]struct{})
	for i := range posts {
		post := &posts[i]
		body := post.Body()

		m.Impressions += post.Views()
		m.Likes += post.FavoriteCount
		m.Retweets += post.RetweetCount
		m.ContentWordCount += utils.WordCount(body)
		m.FullText = append(m.FullText, body)

		if post.Entities != nil {
			if f.hasMention(post.Entities) {
				m.HasRequiredMention = true
			}
			if f.hasLink(post.Entities) {
				m.HasRequiredLink = true
			}
			for _, tag := range post.Entities.Hashtags {
				hashtags[utils.FoldText(tag.Text)] = struct{}{}
			}
		}

		if ts, err := ParseTime(post.CreatedAt); err == nil {
			m.Timeline = append(m.Timeline, EngagementSample{
				Timestamp:   ts,
				Likes:       post.FavoriteCount,
				Retweets:    post.RetweetCount,
				Impressions: post.Views(),
			})
		} else {
			f.logger.Debug("Skipping timeline sample with unparseable time",
				zap.String("postID", post.IDStr),
				zap.String("createdAt", post.CreatedAt))
		}
	}

	slices.SortStableFunc(m.Timeline, func(a, b EngagementSample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	m.HasAllHashtags = true
	for _, required := range f.requirements.Hashtags {
		if _, ok := hashtags[utils.FoldText(required)]; !ok {
			m.HasAllHashtags = false
			break
		}
	}

	m.EngagementRate = EngagementRate(m.Likes, m.Retweets, m.MeaningfulComments, m.Impressions)

	account, err := f.account(posts[0].User)
	if err != nil {
		return nil, err
	}
	m.Account = account

	return m, nil
}

// countMeaningfulComments fetches the replies of every post concurrently and
// counts those longer than the meaningful word threshold.
func (f *Fetcher) countMeaningfulComments(ctx context.Context, posts []Post) (int, error) {
	var (
		p     = pool.New().WithContext(ctx).WithCancelOnError()
		mu    sync.Mutex
		total int
	)

	for i := range posts {
		postID := posts[i].IDStr
		p.Go(func(ctx context.Context) error {
			replies, err := f.api.GetComments(ctx, postID)
			if err != nil {
				return fmt.Errorf("comments of %s: %w", postID, err)
			}

			count := 0
			for j := range replies {
				if utils.WordCount(replies[j].Body()) > f.requirements.MeaningfulWords {
					count++
				}
			}

			mu.Lock()
			total += count
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return 0, err
	}

	return total, nil
}

func (f *Fetcher) hasMention(entities *Entities) bool {
	for _, mention := range entities.UserMentions {
		if utils.FoldEqual(mention.ScreenName, f.requirements.Mention) {
			return true
		}
	}
	return false
}

func (f *Fetcher) hasLink(entities *Entities) bool {
	for _, link := range entities.URLs {
		if f.requirements.LinkDomain != "" && strings.Contains(link.ExpandedURL, f.requirements.LinkDomain) {
			return true
		}
	}
	return false
}

// account extracts the author's account signals from the thread's first post.
func (f *Fetcher) account(user *User) (Account, error) {
	if user == nil {
		return Account{}, fmt.Errorf("%w: missing author", ErrEmptyThread)
	}

	created, err := ParseTime(user.CreatedAt)
	if err != nil {
		return Account{}, fmt.Errorf("invalid account creation time: %w", err)
	}

	return Account{
		Followers:      user.FollowersCount,
		AccountAgeDays: int(f.now().Sub(created).Hours() / 24),
		Tweets:         user.StatusesCount,
		HasBio:         user.Description != "",
		HasAvatar:      user.HasAvatar(),
	}, nil
}

// EngagementRate returns engagements per hundred impressions rounded to two
// decimals, or 0 when there are no impressions.
func EngagementRate(likes, retweets, comments, impressions int) float64 {
	if impressions == 0 {
		return 0
	}
	rate := float64(likes+retweets+comments) / float64(impressions) * 100
	return math.Round(rate*100) / 100
}

// ParseTime parses the timestamps returned by the API. Both the ISO form and
// the legacy Twitter form are accepted.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RubyDate, value)
}
