package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Pushkeeper/internal/config/api"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb, err := initRedis(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	svc, err := buildServices(cfg, logger, db, rdb)
	if err != nil {
		logger.Fatal("wiring", zap.Error(err))
	}

	httpSrv := buildHTTPServer(cfg, logger, db, svc)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal")
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("bye")
}
