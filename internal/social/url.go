package social

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPostURL is returned for URLs that do not point to a single post.
var ErrInvalidPostURL = errors.New("invalid post URL format")

// postURLPattern matches /<handle>/status/<id> as well as the share forms
// /i/status/<id> and /i/web/status/<id>.
var postURLPattern = regexp.MustCompile(
	`(?i)^(?:https?://)?(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/(?:i/web|[A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)(?:[/?#].*)?$`,
)

// IsPostURL checks if the given string is a link to a post on x.com or twitter.com.
func IsPostURL(input string) bool {
	return postURLPattern.MatchString(strings.TrimSpace(input))
}

// ExtractPostID extracts the numeric post ID from a post URL.
func ExtractPostID(url string) (string, error) {
	matches := postURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if len(matches) < 2 {
		return "", ErrInvalidPostURL
	}

	return matches[1], nil
}
