package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/NordCoder/Pushkeeper/internal/domain/counter"
	"github.com/NordCoder/Pushkeeper/internal/domain/events"
	"github.com/NordCoder/Pushkeeper/internal/domain/notification"
	"github.com/NordCoder/Pushkeeper/internal/domain/outbox"
	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	outboxrunner "github.com/NordCoder/Pushkeeper/internal/outbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSweepRunning is returned when another sweep holds the lock.
var ErrSweepRunning = fmt.Errorf("sweep already running: %w", domain.ErrConflict)

// Locker hands out the sweep lease. release must be called once the sweep ends.
type Locker interface {
	TryAcquire(ctx context.Context) (release func(context.Context) error, ok bool, err error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Result struct {
	SweepID       string      `json:"sweep_id"`
	Day           counter.Day `json:"day"`
	Now           string      `json:"now"`
	Due           int         `json:"due"`
	SkippedDone   int         `json:"skipped_done"`
	Reminded      int         `json:"reminded"`
	Congratulated int         `json:"congratulated"`
	Errors        int         `json:"errors"`
}

type tally struct {
	mu sync.Mutex
	r  *Result
}

func (t *tally) add(f func(r *Result)) {
	t.mu.Lock()
	f(t.r)
	t.mu.Unlock()
}

type Usecase struct {
	users    user.Repo
	counters counter.Repo
	sender   notification.Sender
	log      *zap.Logger
	loc      *time.Location
	clk      func() time.Time

	concurrency int
	history     notification.Repo
	lock        Locker
	tx          Transactor
	outbox      outbox.Repository
}

type Option func(*Usecase)

func WithClock(clk func() time.Time) Option { return func(u *Usecase) { u.clk = clk } }

func WithConcurrency(n int) Option { return func(u *Usecase) { u.concurrency = n } }

// WithHistory appends every delivered message to the notifications log.
func WithHistory(r notification.Repo) Option { return func(u *Usecase) { u.history = r } }

func WithLock(l Locker) Option { return func(u *Usecase) { u.lock = l } }

// WithEvents enqueues goal_completed in the latch transaction.
func WithEvents(tx Transactor, repo outbox.Repository) Option {
	return func(u *Usecase) { u.tx, u.outbox = tx, repo }
}

func NewUsecase(users user.Repo, counters counter.Repo, sender notification.Sender, loc *time.Location, log *zap.Logger, opts ...Option) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	u := &Usecase{
		users:       users,
		counters:    counters,
		sender:      sender,
		log:         log.With(zap.String("component", "evaluator")),
		loc:         loc,
		clk:         time.Now,
		concurrency: 4,
	}
	for _, o := range opts {
		o(u)
	}
	if u.concurrency <= 0 {
		u.concurrency = 1
	}
	return u
}

// Sweep evaluates every due user once. A failure to read users or counters
// aborts before anything is written; per-user failures are counted in the
// result and do not stop the batch.
func (u *Usecase) Sweep(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		mDuration.Observe(time.Since(start).Seconds())
		switch {
		case errors.Is(err, ErrSweepRunning):
			mSweeps.WithLabelValues("skipped_locked").Inc()
		case err != nil:
			mSweeps.WithLabelValues("failed").Inc()
		default:
			mSweeps.WithLabelValues("ok").Inc()
		}
	}()

	if u.lock != nil {
		release, ok, lerr := u.lock.TryAcquire(ctx)
		switch {
		case lerr != nil:
			obs.WithTrace(ctx, u.log).Warn("sweep lock unavailable, continuing unlocked", zap.Error(lerr))
		case !ok:
			return Result{}, ErrSweepRunning
		default:
			defer func() {
				if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
					u.log.Warn("release sweep lock", zap.Error(rerr))
				}
			}()
		}
	}

	now := u.clk().In(u.loc)
	res = Result{
		SweepID: uuid.NewString(),
		Day:     counter.DayOf(now),
		Now:     now.Format("15:04"),
	}

	tr := otel.Tracer("evaluator.uc")
	ctx, span := tr.Start(ctx, "evaluator.sweep", trace.WithAttributes(
		attribute.String("sweep.id", res.SweepID),
		attribute.String("sweep.day", res.Day.String()),
		attribute.String("sweep.now", res.Now),
	))
	defer span.End()
	log := obs.WithTrace(ctx, u.log).With(zap.String("sweep_id", res.SweepID))

	due, err := u.users.ListDueForNotification(ctx, res.Now)
	if err != nil {
		span.RecordError(err)
		return res, domain.NewStoreError("list due users", err)
	}
	res.Due = len(due)
	mDue.Add(float64(len(due)))
	span.SetAttributes(attribute.Int("sweep.due", len(due)))
	if len(due) == 0 {
		return res, nil
	}

	ids := make([]int64, 0, len(due))
	for _, usr := range due {
		ids = append(ids, usr.ID)
	}
	list, err := u.counters.ListByDay(ctx, res.Day, ids)
	if err != nil {
		span.RecordError(err)
		return res, domain.NewStoreError("list counters", err)
	}
	byUser := make(map[int64]*counter.Counter, len(list))
	for _, c := range list {
		byUser[c.UserID] = c
	}

	t := &tally{r: &res}
	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for _, usr := range due {
		usr, c := usr, byUser[usr.ID]
		g.Go(func() error {
			u.evaluate(ctx, log, usr, c, res.Day, now, t)
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("sweep.reminded", res.Reminded),
		attribute.Int("sweep.congratulated", res.Congratulated),
		attribute.Int("sweep.errors", res.Errors),
	)
	log.Info("sweep done",
		zap.String("day", res.Day.String()),
		zap.String("now", res.Now),
		zap.Int("due", res.Due),
		zap.Int("skipped_done", res.SkippedDone),
		zap.Int("reminded", res.Reminded),
		zap.Int("congratulated", res.Congratulated),
		zap.Int("errors", res.Errors),
	)
	return res, nil
}

// evaluate runs the decision for one user. The latch is always written
// before the congratulation is sent.
func (u *Usecase) evaluate(ctx context.Context, log *zap.Logger, usr *user.User, c *counter.Counter, day counter.Day, now time.Time, t *tally) {
	ctx, span := otel.Tracer("evaluator.uc").Start(ctx, "evaluator.user",
		trace.WithAttributes(attribute.Int64("user.id", usr.ID)))
	defer span.End()
	log = log.With(zap.Int64("user_id", usr.ID))

	if c.Done() {
		t.add(func(r *Result) { r.SkippedDone++ })
		return
	}
	if usr.NotificationEndpoint == nil {
		return
	}
	endpoint := *usr.NotificationEndpoint

	if !c.GoalMet(usr.PushGoal) {
		text := reminderText(usr, c.Count())
		if err := u.sender.Send(ctx, endpoint, text); err != nil {
			span.RecordError(err)
			mErrors.WithLabelValues("deliver").Inc()
			t.add(func(r *Result) { r.Errors++ })
			log.Warn("reminder delivery failed", zap.Error(err))
			return
		}
		mSent.WithLabelValues(string(notification.KindReminder)).Inc()
		t.add(func(r *Result) { r.Reminded++ })
		u.record(ctx, log, usr.ID, day, notification.KindReminder, text)
		return
	}

	flipped, err := u.latch(ctx, usr, c, day, now)
	if err != nil {
		span.RecordError(err)
		mErrors.WithLabelValues("latch").Inc()
		t.add(func(r *Result) { r.Errors++ })
		log.Error("set job done failed", zap.Int64("counter_id", c.ID), zap.Error(err))
		return
	}
	if !flipped {
		t.add(func(r *Result) { r.SkippedDone++ })
		log.Debug("latch already set by another sweep", zap.Int64("counter_id", c.ID))
		return
	}

	text := congratsText(usr, c.Count())
	if err := u.sender.Send(ctx, endpoint, text); err != nil {
		span.RecordError(err)
		mErrors.WithLabelValues("deliver").Inc()
		t.add(func(r *Result) { r.Errors++ })
		log.Warn("congratulation lost: latch set but delivery failed", zap.Error(err))
		return
	}
	mSent.WithLabelValues(string(notification.KindGoalMet)).Inc()
	t.add(func(r *Result) { r.Congratulated++ })
	u.record(ctx, log, usr.ID, day, notification.KindGoalMet, text)
}

func (u *Usecase) latch(ctx context.Context, usr *user.User, c *counter.Counter, day counter.Day, now time.Time) (bool, error) {
	if u.tx == nil || u.outbox == nil {
		return u.counters.MarkJobDone(ctx, c.ID)
	}
	var flipped bool
	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		flipped, err = u.counters.MarkJobDone(ctx, c.ID)
		if err != nil || !flipped {
			return err
		}
		key := fmt.Sprintf("goal:%d:%s", usr.ID, day)
		return outboxrunner.Enqueue(ctx, u.outbox, key, outbox.KindGoalCompleted, events.GoalCompleted{
			UserID:    usr.ID,
			Day:       day,
			PushCount: c.PushCount,
			PushGoal:  usr.PushGoal,
			At:        now,
		})
	})
	if err != nil {
		return false, err
	}
	return flipped, nil
}

func (u *Usecase) record(ctx context.Context, log *zap.Logger, userID int64, day counter.Day, kind notification.Kind, text string) {
	if u.history == nil {
		return
	}
	n := &notification.Notification{UserID: userID, Day: day, Kind: kind, SentAt: u.clk(), Payload: text}
	if err := u.history.Create(ctx, n); err != nil {
		mErrors.WithLabelValues("history").Inc()
		log.Warn("append notification log", zap.String("kind", string(kind)), zap.Error(err))
	}
}
