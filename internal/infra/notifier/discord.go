package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"itnews-radar/internal/config"
	"itnews-radar/internal/domain/entity"
)

// DiscordNotifier posts alerts as Discord webhook embeds.
type DiscordNotifier struct {
	hook *webhook
}

// NewDiscordNotifier creates a notifier limited to 0.5 req/s with a burst of
// 3 (Discord allows 30 webhook requests per minute). Failed requests are tried
// twice with a 5s base delay.
func NewDiscordNotifier(cfg config.WebhookConfig, logger *slog.Logger) *DiscordNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordNotifier{hook: &webhook{
		service:    "Discord",
		url:        cfg.URL,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(0.5, 3),
		maxAttempt: 2,
		baseDelay:  5 * time.Second,
		logger:     logger,
		retryAfter: discordRetryAfter,
	}}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedField is a name/value row of an embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	maxFieldValueLength  = 1024
	truncationSuffix     = "..."

	// #ED4245 for items scoring 0.9 and above, Discord blue (#5865F2) otherwise.
	discordRedColor  = 15548997
	discordBlueColor = 5793266
)

func (d *DiscordNotifier) buildEmbedPayload(item entity.ScoredItem) DiscordWebhookPayload {
	color := discordBlueColor
	if item.Breakdown.FinalScore >= 0.9 {
		color = discordRedColor
	}

	fields := []DiscordEmbedField{{
		Name:   "Relevance",
		Value:  formatScore(item.Breakdown.FinalScore),
		Inline: true,
	}}
	if kw := joinTerms(item.Breakdown.MatchedKeywords); kw != "" {
		fields = append(fields, DiscordEmbedField{Name: "Keywords", Value: truncate(kw, maxFieldValueLength, truncationSuffix), Inline: true})
	}
	if tp := joinTerms(item.Breakdown.MatchedTopics); tp != "" {
		fields = append(fields, DiscordEmbedField{Name: "Topics", Value: truncate(tp, maxFieldValueLength, truncationSuffix)})
	}

	return DiscordWebhookPayload{Embeds: []DiscordEmbed{{
		Title:       truncate(item.Item.Title, maxTitleLength, truncationSuffix),
		Description: truncate(item.Item.Body, maxDescriptionLength, truncationSuffix),
		URL:         item.Item.URL,
		Color:       color,
		Fields:      fields,
		Footer:      DiscordEmbedFooter{Text: item.Item.Source},
		Timestamp:   item.Item.PublishedAt.Format(time.RFC3339),
	}}}
}

// discordRetryAfter prefers retry_after (seconds, fractional) from the JSON
// body over the Retry-After header.
func discordRetryAfter(resp *http.Response, body []byte) time.Duration {
	var e struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.RetryAfter > 0 {
		return time.Duration(e.RetryAfter * float64(time.Second))
	}
	return headerRetryAfter(resp)
}

// Name implements notify.Channel.
func (d *DiscordNotifier) Name() string { return "discord" }

// Send posts one alert, waiting for the rate limiter first.
func (d *DiscordNotifier) Send(ctx context.Context, item entity.ScoredItem) error {
	return d.hook.send(ctx, item.Item.ID, d.buildEmbedPayload(item))
}
