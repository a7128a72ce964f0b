package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/notification"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Discord's hard limit for webhook message content.
const maxContentLen = 2000

var (
	mSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_deliveries_total", Help: "Discord webhook deliveries by result.",
	}, []string{"result"})
	mLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "notifier_delivery_duration_seconds", Help: "Discord webhook call latency.",
		Buckets: prometheus.DefBuckets,
	})
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Discord sends through discordgo with REST and rate-limit retries turned off,
// so every Send is exactly one HTTP attempt.
type Discord struct {
	s   *discordgo.Session
	log *zap.Logger
}

var _ notification.Sender = (*Discord)(nil)

func NewDiscord(cfg Config, log *zap.Logger) (*Discord, error) {
	return newDiscord(cfg, NewHTTPClient(cfg.Timeout), log)
}

func newDiscord(cfg Config, client *http.Client, log *zap.Logger) (*Discord, error) {
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Client = client
	s.MaxRestRetries = 0
	s.ShouldRetryOnRateLimit = false
	if cfg.UserAgent != "" {
		s.UserAgent = cfg.UserAgent
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Discord{s: s, log: log.With(zap.String("component", "notifier.discord"))}, nil
}

func (d *Discord) Send(ctx context.Context, endpoint, text string) error {
	hook, err := ParseWebhookURL(endpoint)
	if err != nil {
		mSent.WithLabelValues("invalid_endpoint").Inc()
		return &domain.DeliveryError{Err: err}
	}
	text = truncate(text, maxContentLen)

	ctx, span := otel.Tracer("notifier.discord").Start(ctx, "discord.webhook_execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("discord.webhook_id", hook.ID)),
	)
	defer span.End()

	start := time.Now()
	_, err = d.s.WebhookExecute(hook.ID, hook.Token, false, &discordgo.WebhookParams{
		Content:         text,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	mLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		derr := asDeliveryError(err)
		span.RecordError(derr)
		span.SetAttributes(attribute.Int("http.status_code", derr.Status))
		mSent.WithLabelValues("error").Inc()
		obs.WithTrace(ctx, d.log).Warn("discord delivery failed",
			zap.String("webhook_id", hook.ID), zap.Int("status", derr.Status), zap.Error(err))
		return derr
	}
	mSent.WithLabelValues("ok").Inc()
	return nil
}

// truncate keeps at most n characters, cutting on a rune boundary.
func truncate(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

func asDeliveryError(err error) *domain.DeliveryError {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		return &domain.DeliveryError{Status: rest.Response.StatusCode, Err: err}
	}
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return &domain.DeliveryError{Status: http.StatusTooManyRequests, Err: err}
	}
	return &domain.DeliveryError{Err: err}
}
