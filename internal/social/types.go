package social

import (
	"strings"
	"time"
)

// Post is a single post as returned by the social data API.
type Post struct {
	IDStr         string    `json:"id_str"`
	CreatedAt     string    `json:"tweet_created_at"`
	FullText      string    `json:"full_text"`
	Text          string    `json:"text"`
	FavoriteCount int       `json:"favorite_count"`
	RetweetCount  int       `json:"retweet_count"`
	ViewsCount    *int      `json:"views_count"`
	Entities      *Entities `json:"entities"`
	User          *User     `json:"user"`
}

// Entities holds the parsed entities of a post.
type Entities struct {
	Hashtags     []Hashtag     `json:"hashtags"`
	UserMentions []UserMention `json:"user_mentions"`
	URLs         []URLEntity   `json:"urls"`
}

// Hashtag is a hashtag entity.
type Hashtag struct {
	Text string `json:"text"`
}

// UserMention is a mention entity.
type UserMention struct {
	ScreenName string `json:"screen_name"`
}

// URLEntity is a link entity.
type URLEntity struct {
	ExpandedURL string `json:"expanded_url"`
}

// User is the author of a post.
type User struct {
	FollowersCount       int    `json:"followers_count"`
	StatusesCount        int    `json:"statuses_count"`
	Description          string `json:"description"`
	ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	CreatedAt            string `json:"created_at"`
}

// PostList is the response body of the thread and comments endpoints.
type PostList struct {
	Tweets []Post `json:"tweets"`
}

// Body returns the post text, preferring the untruncated form.
func (p *Post) Body() string {
	if p.FullText != "" {
		return p.FullText
	}
	return p.Text
}

// Views returns the impression count, treating a missing count as zero.
func (p *Post) Views() int {
	if p.ViewsCount == nil {
		return 0
	}
	return *p.ViewsCount
}

// HasAvatar reports whether the user set a custom profile image.
func (u *User) HasAvatar() bool {
	return u.ProfileImageURLHTTPS != "" && !strings.Contains(u.ProfileImageURLHTTPS, "default_profile_images")
}

// Metrics is the normalized engagement record of one thread.
// It is built per evaluation and never shared between items.
type Metrics struct {
	PostID             string
	Impressions        int
	Likes              int
	Retweets           int
	MeaningfulComments int
	EngagementRate     float64
	ContentWordCount   int
	HasRequiredMention bool
	HasRequiredLink    bool
	HasAllHashtags     bool
	ThreadLength       int
	Account            Account
	Timeline           []EngagementSample
	FullText           []string
}

// Account holds the author's account quality signals.
type Account struct {
	Followers      int
	AccountAgeDays int
	Tweets         int
	HasBio         bool
	HasAvatar      bool
}

// EngagementSample is one point of the engagement timeline.
type EngagementSample struct {
	Timestamp   time.Time
	Likes       int
	Retweets    int
	Impressions int
}

// Requirements lists what a thread must contain to be eligible.
type Requirements struct {
	Mention         string
	LinkDomain      string
	Hashtags        []string
	MeaningfulWords int
}
