package notifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/NordCoder/Pushkeeper/internal/domain"
)

var webhookHosts = map[string]struct{}{
	"discord.com":           {},
	"discordapp.com":        {},
	"ptb.discord.com":       {},
	"canary.discord.com":    {},
	"ptb.discordapp.com":    {},
	"canary.discordapp.com": {},
}

// Webhook identifies a Discord incoming webhook.
type Webhook struct {
	ID    string
	Token string
}

// ParseWebhookURL accepts https://discord.com/api/webhooks/{id}/{token},
// optionally with an /api/v{n} prefix and a trailing slash.
func ParseWebhookURL(raw string) (Webhook, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Webhook{}, fmt.Errorf("endpoint: %v: %w", err, domain.ErrInvalidInput)
	}
	if u.Scheme != "https" {
		return Webhook{}, fmt.Errorf("endpoint must use https: %w", domain.ErrInvalidInput)
	}
	if _, ok := webhookHosts[strings.ToLower(u.Hostname())]; !ok {
		return Webhook{}, fmt.Errorf("endpoint host %q is not discord: %w", u.Hostname(), domain.ErrInvalidInput)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" && strings.HasPrefix(parts[1], "v") {
		parts = append(parts[:1], parts[2:]...)
	}
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "webhooks" || parts[2] == "" || parts[3] == "" {
		return Webhook{}, fmt.Errorf("endpoint path %q: want /api/webhooks/{id}/{token}: %w", u.Path, domain.ErrInvalidInput)
	}
	for _, r := range parts[2] {
		if r < '0' || r > '9' {
			return Webhook{}, fmt.Errorf("webhook id %q is not numeric: %w", parts[2], domain.ErrInvalidInput)
		}
	}
	return Webhook{ID: parts[2], Token: parts[3]}, nil
}

// ValidateEndpoint is ParseWebhookURL for callers that only need the check.
func ValidateEndpoint(raw string) error {
	_, err := ParseWebhookURL(raw)
	return err
}
