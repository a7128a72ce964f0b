package main

import (
	config "github.com/NordCoder/Pushkeeper/internal/config/api"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
}
