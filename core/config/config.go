package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings that are common for all bots.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Dir        string `yaml:"dir"`
	BotFile    string `yaml:"bot_file"`
	ErrorsFile string `yaml:"errors_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// ReviewConfig lists the identities allowed to run the review flows.
type ReviewConfig struct {
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
}

// LimitsConfig carries the domain thresholds consumed by validation and flows.
type LimitsConfig struct {
	MinStreamViewers  int `yaml:"min_stream_viewers" envconfig:"MIN_STREAM_VIEWERS"`
	MinShortsViews    int `yaml:"min_shorts_views" envconfig:"MIN_SHORTS_VIEWS"`
	MinVideoViews     int `yaml:"min_video_views" envconfig:"MIN_VIDEO_VIEWS"`
	MaxNoteLen        int `yaml:"max_note_len" envconfig:"MAX_NOTE_LEN"`
	DateRetentionDays int `yaml:"date_retention_days" envconfig:"DATE_RETENTION_DAYS"`
	PageSize          int `yaml:"page_size" envconfig:"PAGE_SIZE"`
	// RatePerThousand is the payout requested per 1000 reported views when a
	// submission turns into a payment request.
	RatePerThousand float64 `yaml:"rate_per_thousand" envconfig:"RATE_PER_THOUSAND"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the configuration consumed by the bot.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Review    ReviewConfig    `yaml:"review"`
	Limits    LimitsConfig    `yaml:"limits"`
}

// IsAdmin reports whether the given Telegram user belongs to the review set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Review.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if len(cfg.Review.AdminIDs) == 0 {
		return fmt.Errorf("review.admin_ids must list at least one admin")
	}
	for _, id := range cfg.Review.AdminIDs {
		if id <= 0 {
			return fmt.Errorf("review.admin_ids contains invalid id %d", id)
		}
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	normalizeLimits(&cfg.Limits)
	return nil
}

func normalizeLimits(l *LimitsConfig) {
	if l.MinStreamViewers <= 0 {
		l.MinStreamViewers = 20
	}
	if l.MinShortsViews <= 0 {
		l.MinShortsViews = 1000
	}
	if l.MinVideoViews <= 0 {
		l.MinVideoViews = 3000
	}
	if l.MaxNoteLen <= 0 {
		l.MaxNoteLen = 200
	}
	if l.RatePerThousand <= 0 {
		l.RatePerThousand = 50
	}
	if l.DateRetentionDays <= 0 {
		l.DateRetentionDays = 90
	}
	if l.PageSize <= 0 {
		l.PageSize = 5
	}
}
