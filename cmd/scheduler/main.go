package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "github.com/NordCoder/Pushkeeper/internal/config/scheduler"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"github.com/NordCoder/Pushkeeper/internal/obs/retry"
	"github.com/NordCoder/Pushkeeper/internal/outbox"
	kafkax "github.com/NordCoder/Pushkeeper/internal/repository/kafka"
	pg "github.com/NordCoder/Pushkeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Pushkeeper/internal/repository/redis"
	notifier "github.com/NordCoder/Pushkeeper/internal/services/discord-notifier"
	"github.com/NordCoder/Pushkeeper/internal/services/evaluator"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to yaml config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	l.Info("starting scheduler",
		zap.Duration("interval", cfg.Sweep.Interval),
		zap.String("timezone", cfg.Sweep.Timezone),
		zap.Bool("events", cfg.Events.Enable),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// metrics + health
	ms := obs.BootstrapMetricsServer(cfg.MetricsAddr, db.Ping, l)

	// wiring
	loc, err := cfg.Sweep.Location()
	if err != nil {
		l.Fatal("timezone", zap.Error(err))
	}
	sender, err := notifier.NewDiscord(notifier.Config{Timeout: cfg.Notifier.Timeout, UserAgent: cfg.Notifier.UserAgent}, l)
	if err != nil {
		l.Fatal("notifier", zap.Error(err))
	}

	users := pg.NewUserRepo(db)
	counters := pg.NewCounterRepo(db)
	opts := []evaluator.Option{
		evaluator.WithConcurrency(cfg.Sweep.Concurrency),
		evaluator.WithHistory(pg.NewNotificationRepo(db)),
	}

	if cfg.Redis.Enable {
		rdb, err := redisx.NewClient(ctx, cfg.Redis)
		if err != nil {
			l.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		opts = append(opts, evaluator.WithLock(redisx.NewSweepLock(rdb, cfg.Redis.Prefix, cfg.Sweep.LockTTL)))
	}

	var wg sync.WaitGroup
	if cfg.Events.Enable {
		obRepo := pg.NewOutboxRepo(db)
		opts = append(opts, evaluator.WithEvents(pg.NewTransactor(db, l), obRepo))

		prod := kafkax.BootstrapProducer(ctx, cfg.Events.Brokers, cfg.Events.Topic, l)
		defer func() { _ = prod.Close() }()

		relay := outbox.NewRunner(l, obRepo,
			outbox.NewDispatcher(kafkax.NewActivityEventsKafka(prod), retry.PublishPolicy("outbox_kafka", l)),
			outbox.Config{
				Workers:       cfg.Events.Workers,
				BatchSize:     cfg.Events.Batch,
				WaitTime:      cfg.Events.Wait,
				InProgressTTL: cfg.Events.InProgressTTL,
			})
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	}

	uc := evaluator.NewUsecase(users, counters, sender, loc, l, opts...)
	runner := evaluator.NewRunner(l, uc, cfg.Sweep.Interval)

	// run
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- runner.Run(ctx)
	}()

	l.Info("scheduler started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
		stop()
	}
	wg.Wait()

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
