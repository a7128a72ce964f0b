package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/events"
	"github.com/NordCoder/Pushkeeper/internal/domain/outbox"
	"github.com/NordCoder/Pushkeeper/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	handlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

// Enqueue serialises v and stores it under key. When ctx carries a
// transaction the row joins it.
func Enqueue(ctx context.Context, repo outbox.Repository, key string, kind outbox.Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return repo.Enqueue(ctx, key, kind, data)
}

func instrument(kind outbox.Kind, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind.String()
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		defer span.End()
		span.SetAttributes(attribute.String("outbox.kind", kind.String()))

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		handlerLatency.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			handlerErrors.WithLabelValues(kind.String()).Inc()
		}
		return err
	}
}

// NewDispatcher routes stored messages to the activity event publisher.
func NewDispatcher(pub events.ActivityEvents, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindPushCounted:
			return instrument(kind, func(ctx context.Context, data []byte) error {
				var ev events.PushCounted
				if err := json.Unmarshal(data, &ev); err != nil {
					return fmt.Errorf("unmarshal push-counted payload: %w", err)
				}
				return pub.PublishPushCounted(ctx, ev)
			}, pol), nil
		case outbox.KindGoalCompleted:
			return instrument(kind, func(ctx context.Context, data []byte) error {
				var ev events.GoalCompleted
				if err := json.Unmarshal(data, &ev); err != nil {
					return fmt.Errorf("unmarshal goal-completed payload: %w", err)
				}
				return pub.PublishGoalCompleted(ctx, ev)
			}, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
