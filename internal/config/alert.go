package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// WebhookConfig configures one chat webhook.
type WebhookConfig struct {
	Enabled bool
	// URL embeds the webhook token and must never be logged.
	URL     string
	Timeout time.Duration
}

// AlertConfig controls chat alerts for newly stored, highly relevant items.
type AlertConfig struct {
	// Threshold is the minimum final score that triggers an alert.
	Threshold     float64
	MaxConcurrent int
	Discord       WebhookConfig
	Slack         WebhookConfig
}

// Enabled reports whether any channel is enabled.
func (c *AlertConfig) Enabled() bool {
	return c.Discord.Enabled || c.Slack.Enabled
}

// LoadAlertConfig reads ALERT_THRESHOLD, ALERT_MAX_CONCURRENT and the
// DISCORD_*/SLACK_* webhook settings. A misconfigured webhook disables its
// channel with a warning instead of failing startup.
func LoadAlertConfig(logger *slog.Logger) *AlertConfig {
	if logger == nil {
		logger = slog.Default()
	}

	threshold := 0.8
	if raw := os.Getenv("ALERT_THRESHOLD"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			logger.Warn("invalid ALERT_THRESHOLD, using default", slog.String("value", raw), slog.Float64("default", threshold))
		} else {
			threshold = v
		}
	}

	maxConcurrent := getEnvInt("ALERT_MAX_CONCURRENT", 10)
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &AlertConfig{
		Threshold:     threshold,
		MaxConcurrent: maxConcurrent,
		Discord:       loadWebhook(logger, "discord", "DISCORD", ValidateDiscordWebhook),
		Slack:         loadWebhook(logger, "slack", "SLACK", ValidateSlackWebhook),
	}
}

func loadWebhook(logger *slog.Logger, name, prefix string, validate func(string) error) WebhookConfig {
	if os.Getenv(prefix+"_ENABLED") != "true" {
		return WebhookConfig{}
	}
	raw := os.Getenv(prefix + "_WEBHOOK_URL")
	if err := validate(raw); err != nil {
		logger.Warn("webhook misconfigured, disabling alerts for channel",
			slog.String("channel", name),
			slog.Any("error", err))
		return WebhookConfig{}
	}
	return WebhookConfig{
		Enabled: true,
		URL:     raw,
		Timeout: getEnvDuration(prefix+"_TIMEOUT", 30*time.Second),
	}
}

// ValidateDiscordWebhook accepts https://discord.com/api/webhooks/... URLs.
func ValidateDiscordWebhook(raw string) error {
	return validateWebhook(raw, "discord.com", "/api/webhooks/")
}

// ValidateSlackWebhook accepts https://hooks.slack.com/services/... URLs.
func ValidateSlackWebhook(raw string) error {
	return validateWebhook(raw, "hooks.slack.com", "/services/")
}

func validateWebhook(raw, host, pathPrefix string) error {
	if raw == "" {
		return fmt.Errorf("webhook URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL format")
	}
	if u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	if u.Host != host {
		return fmt.Errorf("invalid webhook host %q", u.Host)
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return fmt.Errorf("invalid webhook path")
	}
	return nil
}
