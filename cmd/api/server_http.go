package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/Pushkeeper/internal/config/api"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	pg "github.com/NordCoder/Pushkeeper/internal/repository/postgres"
	"github.com/NordCoder/Pushkeeper/internal/services/evaluator"
	"github.com/NordCoder/Pushkeeper/internal/services/settings"
	"github.com/NordCoder/Pushkeeper/internal/services/webhook"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, svc *services) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/webhooks/github", webhook.NewServer(logger, svc.webhook))
	mux.Handle("/v1/sweep", evaluator.NewTriggerServer(logger, svc.evaluator, cfg.Sweep.Secret))
	settings.NewServer(logger, svc.settings, cfg.Admin.Token).Register(mux)

	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.Handle("GET /healthz", obs.HealthHandler(db.Ping))

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(mux, "api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
