package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
	"github.com/NordCoder/Pushkeeper/internal/domain/events"
	"github.com/NordCoder/Pushkeeper/internal/domain/outbox"
	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	outboxrunner "github.com/NordCoder/Pushkeeper/internal/outbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Status string

const (
	StatusCounted   Status = "counted"
	StatusIgnored   Status = "ignored"
	StatusDuplicate Status = "duplicate"
)

// Delivery is one inbound GitHub webhook call.
type Delivery struct {
	Body       []byte
	Signature  string
	Event      string
	DeliveryID string
}

type Result struct {
	Status  Status           `json:"status"`
	Counter *counter.Counter `json:"counter,omitempty"`
}

// Deduper remembers delivery ids. Mark reports whether the id is new.
type Deduper interface {
	Mark(ctx context.Context, deliveryID string) (bool, error)
	Release(ctx context.Context, deliveryID string) error
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pushPayload struct {
	Ref    string `json:"ref"`
	Sender *struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	} `json:"sender"`
}

type Usecase struct {
	secret   []byte
	users    user.Repo
	counters counter.Repo
	log      *zap.Logger
	loc      *time.Location
	clk      func() time.Time

	dedupe Deduper
	tx     Transactor
	outbox outbox.Repository
}

type Option func(*Usecase)

// WithDeduper enables X-GitHub-Delivery deduplication.
func WithDeduper(d Deduper) Option { return func(u *Usecase) { u.dedupe = d } }

// WithEvents writes a push_counted outbox message in the same transaction
// as the increment.
func WithEvents(tx Transactor, repo outbox.Repository) Option {
	return func(u *Usecase) { u.tx, u.outbox = tx, repo }
}

func WithClock(clk func() time.Time) Option { return func(u *Usecase) { u.clk = clk } }

func NewUsecase(secret string, users user.Repo, counters counter.Repo, loc *time.Location, log *zap.Logger, opts ...Option) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	u := &Usecase{
		secret:   []byte(secret),
		users:    users,
		counters: counters,
		log:      log.With(zap.String("component", "webhook")),
		loc:      loc,
		clk:      time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Ingest verifies a delivery and counts it against the sender's daily tally.
// Nothing is mutated unless the signature matches and the sender is a known
// user.
func (u *Usecase) Ingest(ctx context.Context, d Delivery) (Result, error) {
	tr := otel.Tracer("webhook.uc")
	ctx, span := tr.Start(ctx, "webhook.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("github.event", d.Event),
		attribute.String("github.delivery", d.DeliveryID),
	)

	if err := VerifySignature(u.secret, d.Body, d.Signature); err != nil {
		mRejected.WithLabelValues("signature").Inc()
		return Result{}, err
	}

	if d.Event != "" && d.Event != "push" {
		mIgnored.WithLabelValues(d.Event).Inc()
		return Result{Status: StatusIgnored}, nil
	}

	var p pushPayload
	if err := json.Unmarshal(d.Body, &p); err != nil {
		mRejected.WithLabelValues("payload").Inc()
		return Result{}, fmt.Errorf("decode push payload: %v: %w", err, domain.ErrInvalidInput)
	}
	if p.Sender == nil || p.Sender.ID == 0 {
		mRejected.WithLabelValues("payload").Inc()
		return Result{}, fmt.Errorf("push payload has no sender: %w", domain.ErrInvalidInput)
	}
	externalID := strconv.FormatInt(p.Sender.ID, 10)
	span.SetAttributes(attribute.String("github.sender", externalID))

	usr, err := u.users.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			mRejected.WithLabelValues("unknown_user").Inc()
			return Result{}, fmt.Errorf("sender %s: %w", externalID, domain.ErrNotFound)
		}
		span.RecordError(err)
		return Result{}, domain.NewStoreError("get user by external id", err)
	}

	marked := false
	if u.dedupe != nil && d.DeliveryID != "" {
		fresh, derr := u.dedupe.Mark(ctx, d.DeliveryID)
		switch {
		case derr != nil:
			obs.WithTrace(ctx, u.log).Warn("delivery dedupe unavailable", zap.String("delivery", d.DeliveryID), zap.Error(derr))
		case !fresh:
			mDuplicates.Inc()
			return Result{Status: StatusDuplicate}, nil
		default:
			marked = true
		}
	}

	now := u.clk().In(u.loc)
	day := counter.DayOf(now)

	c, err := u.increment(ctx, usr.ID, day, d.DeliveryID, now)
	if err != nil {
		span.RecordError(err)
		if marked {
			// the request may already be gone; the mark must still be dropped
			if rerr := u.dedupe.Release(context.WithoutCancel(ctx), d.DeliveryID); rerr != nil {
				obs.WithTrace(ctx, u.log).Warn("release delivery mark", zap.String("delivery", d.DeliveryID), zap.Error(rerr))
			}
		}
		return Result{}, domain.NewStoreError("increment counter", err)
	}

	mCounted.Inc()
	obs.WithTrace(ctx, u.log).Debug("push counted",
		zap.Int64("user_id", usr.ID),
		zap.String("day", day.String()),
		zap.Int("push_count", c.PushCount),
	)
	return Result{Status: StatusCounted, Counter: c}, nil
}

func (u *Usecase) increment(ctx context.Context, userID int64, day counter.Day, deliveryID string, now time.Time) (*counter.Counter, error) {
	if u.tx == nil || u.outbox == nil {
		return u.counters.IncrementOrCreate(ctx, userID, day)
	}

	key := deliveryID
	if key == "" {
		key = uuid.NewString()
	}
	var c *counter.Counter
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = u.counters.IncrementOrCreate(ctx, userID, day)
		if err != nil {
			return err
		}
		return outboxrunner.Enqueue(ctx, u.outbox, "push:"+key, outbox.KindPushCounted, events.PushCounted{
			UserID:    userID,
			Day:       day,
			PushCount: c.PushCount,
			At:        now,
		})
	})
	return c, err
}
