package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain/outbox"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_picked_total", Help: "Messages picked into processing.",
	})
	mOk = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_ok_total", Help: "Messages processed successfully.",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_processed_err_total", Help: "Pick, dispatch and mark errors.",
	})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "outbox_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_last_batch_size", Help: "Size of last picked batch.",
	})
)

type Config struct {
	Workers       int
	BatchSize     int
	WaitTime      time.Duration
	InProgressTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.WaitTime <= 0 {
		c.WaitTime = time.Second
	}
	if c.InProgressTTL <= 0 {
		c.InProgressTTL = 30 * time.Second
	}
	return c
}

// Runner relays stored messages to their handlers. Messages whose handler
// fails stay IN_PROGRESS and are picked again once InProgressTTL expires.
type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler
	cfg      Config
}

func NewRunner(log *zap.Logger, repo outbox.Repository, dispatch outbox.GlobalHandler, cfg Config) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, repo: repo, dispatch: dispatch, cfg: cfg.withDefaults()}
}

// Run blocks until ctx is cancelled and every worker has returned.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg)
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	r.log.Info("outbox worker started", zap.Duration("wait", r.cfg.WaitTime))

	ticker := time.NewTicker(r.cfg.WaitTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox worker stop")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick picks one batch, dispatches it and marks the delivered messages.
// It returns how many messages were delivered.
func (r *Runner) Tick(ctx context.Context) int {
	t0 := time.Now()
	defer func() { mTickDur.Observe(time.Since(t0).Seconds()) }()

	tr := otel.Tracer("outbox.runner")
	prop := otel.GetTextMapPropagator()

	ctx, span := tr.Start(ctx, "outbox.tick")
	defer span.End()
	span.SetAttributes(
		attribute.Int("batch.limit", r.cfg.BatchSize),
		attribute.String("in_progress_ttl", r.cfg.InProgressTTL.String()),
	)

	messages, err := r.repo.PickBatch(ctx, r.cfg.BatchSize, r.cfg.InProgressTTL)
	if err != nil {
		span.RecordError(err)
		mErr.Inc()
		obs.WithTrace(ctx, r.log).Error("outbox pick error", zap.Error(err))
		return 0
	}
	mPicked.Add(float64(len(messages)))
	mBatchSize.Set(float64(len(messages)))
	if len(messages) == 0 {
		return 0
	}

	okKeys := make([]string, 0, len(messages))
	for _, m := range messages {
		parent := prop.Extract(ctx, propagation.MapCarrier{
			"traceparent": m.Traceparent,
			"tracestate":  m.Tracestate,
			"baggage":     m.Baggage,
		})
		msgCtx, msgSpan := tr.Start(parent, "outbox.dispatch",
			trace.WithAttributes(
				attribute.String("outbox.key", m.IdempotencyKey),
				attribute.String("outbox.kind", m.Kind.String()),
			),
		)

		handler, herr := r.dispatch(m.Kind)
		if herr == nil {
			herr = handler(msgCtx, m.Data)
		}
		if herr != nil {
			msgSpan.RecordError(herr)
			mErr.Inc()
			obs.WithTrace(msgCtx, r.log).Error("outbox dispatch failed",
				zap.String("key", m.IdempotencyKey), zap.Stringer("kind", m.Kind), zap.Error(herr))
			msgSpan.End()
			continue
		}
		msgSpan.End()
		okKeys = append(okKeys, m.IdempotencyKey)
		mOk.Inc()
	}

	if len(okKeys) > 0 {
		if err := r.repo.MarkSuccess(ctx, okKeys); err != nil {
			span.RecordError(err)
			mErr.Inc()
			obs.WithTrace(ctx, r.log).Error("mark success error", zap.Error(err))
			return 0
		}
	}
	return len(okKeys)
}
