package config

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// defaults returns the built-in configuration, flattened with "." as delimiter.
func defaults() map[string]any {
	return map[string]any{
		"version": CurrentVersion,

		"debug.log_level":        "info",
		"debug.max_logs_to_keep": 10,
		"debug.max_log_lines":    100000,
		"debug.stdout":           true,

		"postgresql.max_open_conns":       10,
		"postgresql.max_idle_conns":       5,
		"postgresql.max_lifetime":         "30m",
		"postgresql.max_idle_time":        "5m",
		"postgresql.slow_query_threshold": "500ms",
		"postgresql.auto_migrate":         false,

		"redis.port": 6379,

		"social.base_url":             "https://api.socialdata.tools",
		"social.rate_limit":           120,
		"social.rate_window":          "60s",
		"social.request_timeout":      "30s",
		"social.platform":             "twitter",
		"social.required_mention":     "edithAPP",
		"social.required_link_domain": "edithx.ai",
		"social.required_hashtags":    []string{"edith"},

		"openai.base_url":        "https://api.openai.com/v1/",
		"openai.model":           "gpt-4o-mini",
		"openai.temperature":     0.3,
		"openai.max_tokens":      5,
		"openai.max_concurrent":  4,
		"openai.request_timeout": "60s",

		"thresholds.minimum_score":               30,
		"thresholds.minimum_impressions":         100,
		"thresholds.minimum_retweets":            3,
		"thresholds.minimum_meaningful_comments": 10,
		"thresholds.minimum_likes":               10,
		"thresholds.minimum_authenticity":        70,
		"thresholds.minimum_followers":           10,
		"thresholds.minimum_account_age_days":    90,
		"thresholds.minimum_tweets":              30,
		"thresholds.minimum_content_words":       100,
		"thresholds.meaningful_comment_words":    10,
		"thresholds.suspicious_delta":            100,
		"thresholds.suspicious_window":           "5m",

		"evaluation.batch_size":      10,
		"evaluation.batch_delay":     "1s",
		"evaluation.min_content_age": "168h",

		"reward.daily_pool":            0,
		"reward.referral_bonus":        10,
		"reward.clear_board_on_payout": true,
		"reward.archive_after":         "168h",

		"schedule.evaluate":   "0 */6 * * *",
		"schedule.distribute": "0 0 * * *",
		"schedule.timezone":   "UTC",

		"metrics.address": "",
	}
}

// Default returns the built-in configuration without reading files or the environment.
// Required secrets are left empty.
func Default() *Config {
	k := koanf.New(".")

	var config Config
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		panic(err)
	}

	if err := k.Unmarshal("", &config); err != nil {
		panic(err)
	}

	return &config
}
