package main

import (
	config "github.com/NordCoder/Pushkeeper/internal/config/api"
	pg "github.com/NordCoder/Pushkeeper/internal/repository/postgres"
	redisx "github.com/NordCoder/Pushkeeper/internal/repository/redis"
	notifier "github.com/NordCoder/Pushkeeper/internal/services/discord-notifier"
	"github.com/NordCoder/Pushkeeper/internal/services/evaluator"
	"github.com/NordCoder/Pushkeeper/internal/services/settings"
	"github.com/NordCoder/Pushkeeper/internal/services/webhook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type services struct {
	webhook   *webhook.Usecase
	evaluator *evaluator.Usecase
	settings  *settings.Usecase
}

func buildServices(cfg *config.Config, logger *zap.Logger, db *pg.DB, rdb *redis.Client) (*services, error) {
	loc, err := cfg.Sweep.Location()
	if err != nil {
		return nil, err
	}

	users := pg.NewUserRepo(db)
	counters := pg.NewCounterRepo(db)
	history := pg.NewNotificationRepo(db)

	sender, err := notifier.NewDiscord(notifier.Config{
		Timeout:   cfg.Notifier.Timeout,
		UserAgent: cfg.Notifier.UserAgent,
	}, logger)
	if err != nil {
		return nil, err
	}

	whOpts := []webhook.Option{}
	evOpts := []evaluator.Option{
		evaluator.WithConcurrency(cfg.Sweep.Concurrency),
		evaluator.WithHistory(history),
	}
	if rdb != nil {
		whOpts = append(whOpts, webhook.WithDeduper(redisx.NewDeliveries(rdb, cfg.Redis.Prefix)))
		evOpts = append(evOpts, evaluator.WithLock(redisx.NewSweepLock(rdb, cfg.Redis.Prefix, cfg.Sweep.LockTTL)))
	}
	if cfg.Events.Enable {
		tx := pg.NewTransactor(db, logger)
		ob := pg.NewOutboxRepo(db)
		whOpts = append(whOpts, webhook.WithEvents(tx, ob))
		evOpts = append(evOpts, evaluator.WithEvents(tx, ob))
	}

	return &services{
		webhook:   webhook.NewUsecase(cfg.Webhook.Secret, users, counters, loc, logger, whOpts...),
		evaluator: evaluator.NewUsecase(users, counters, sender, loc, logger, evOpts...),
		settings:  settings.New(users, history),
	}, nil
}
