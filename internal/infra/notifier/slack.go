package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"itnews-radar/internal/config"
	"itnews-radar/internal/domain/entity"
)

// SlackNotifier posts alerts to a Slack Incoming Webhook using Block Kit.
type SlackNotifier struct {
	hook *webhook
}

// NewSlackNotifier creates a notifier limited to 1 req/s with a burst of 1,
// the documented Incoming Webhook limit.
func NewSlackNotifier(cfg config.WebhookConfig, logger *slog.Logger) *SlackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackNotifier{hook: &webhook{
		service:    "Slack",
		url:        cfg.URL,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(1, 1),
		maxAttempt: 2,
		baseDelay:  5 * time.Second,
		logger:     logger,
		retryAfter: func(resp *http.Response, _ []byte) time.Duration { return headerRetryAfter(resp) },
	}}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"` // fallback for notifications
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

const (
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150
)

func (s *SlackNotifier) buildBlockKitPayload(item entity.ScoredItem) SlackWebhookPayload {
	fallback := truncate(fmt.Sprintf("%s - %s", item.Item.Title, item.Item.Source), maxFallbackLength, truncationSuffix)

	title := item.Item.Title
	if item.Item.URL != "" {
		title = fmt.Sprintf("<%s|%s>", item.Item.URL, item.Item.Title)
	}
	section := truncate(fmt.Sprintf("*%s*\n\n%s", title, item.Item.Body), maxSectionTextLength, truncationSuffix)

	footer := truncate(fmt.Sprintf("%s • %s • %s",
		item.Item.Source,
		item.Item.PublishedAt.Format(time.RFC3339),
		scoreLine(item)), maxContextTextLength, truncationSuffix)

	return SlackWebhookPayload{
		Text: fallback,
		Blocks: []SlackBlock{
			{Type: "section", Text: &SlackTextObject{Type: "mrkdwn", Text: section}},
			{Type: "context", Elements: []SlackTextObject{{Type: "mrkdwn", Text: footer}}},
		},
	}
}

// Name implements notify.Channel.
func (s *SlackNotifier) Name() string { return "slack" }

// Send posts one alert, waiting for the rate limiter first.
func (s *SlackNotifier) Send(ctx context.Context, item entity.ScoredItem) error {
	return s.hook.send(ctx, item.Item.ID, s.buildBlockKitPayload(item))
}
