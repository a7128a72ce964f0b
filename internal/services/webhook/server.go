package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/NordCoder/Pushkeeper/internal/httpx"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Ingestor interface {
	Ingest(ctx context.Context, d Delivery) (Result, error)
}

// Server exposes the ingestor as the GitHub webhook endpoint.
type Server struct {
	log *zap.Logger
	uc  Ingestor
}

func NewServer(log *zap.Logger, uc Ingestor) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "webhook.http")), uc: uc}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "read body")
		return
	}

	res, err := s.uc.Ingest(r.Context(), Delivery{
		Body:       body,
		Signature:  r.Header.Get("X-Hub-Signature-256"),
		Event:      r.Header.Get("X-GitHub-Event"),
		DeliveryID: r.Header.Get("X-GitHub-Delivery"),
	})
	if err != nil {
		status := httpx.StatusFor(err)
		if status >= http.StatusInternalServerError {
			obs.WithTrace(r.Context(), s.log).Error("ingest failed", zap.Error(err))
		} else {
			obs.WithTrace(r.Context(), s.log).Info("delivery rejected", zap.Int("status", status), zap.Error(err))
		}
		httpx.Fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
