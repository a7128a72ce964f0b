package main

import (
	"context"

	config "github.com/NordCoder/Pushkeeper/internal/config/api"
	redisx "github.com/NordCoder/Pushkeeper/internal/repository/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// initRedis returns nil when redis is disabled. Delivery dedupe and the
// sweep lock are switched off in that case.
func initRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enable {
		logger.Info("redis disabled: no delivery dedupe, no sweep lock")
		return nil, nil
	}
	rdb, err := redisx.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	return rdb, nil
}
