package evaluator

import (
	"context"
	"net/http"
	"time"

	"github.com/NordCoder/Pushkeeper/internal/httpx"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"go.uber.org/zap"
)

// triggerTimeout bounds a sweep started over HTTP. The sweep is detached from
// the request so a disconnecting caller does not cut it short.
const triggerTimeout = 4 * time.Minute

// TriggerServer runs a sweep on POST. The shared secret comes from the
// X-Sweep-Secret header or the secret query parameter.
type TriggerServer struct {
	log     *zap.Logger
	uc      Sweeper
	secret  string
	timeout time.Duration
}

func NewTriggerServer(log *zap.Logger, uc Sweeper, secret string) *TriggerServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TriggerServer{log: log.With(zap.String("component", "evaluator.http")), uc: uc, secret: secret, timeout: triggerTimeout}
}

func (s *TriggerServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	presented := r.Header.Get("X-Sweep-Secret")
	if presented == "" {
		presented = r.URL.Query().Get("secret")
	}
	if !httpx.SecretEqual(s.secret, presented) {
		httpx.WriteError(w, http.StatusUnauthorized, "bad sweep secret")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
	defer cancel()
	res, err := s.uc.Sweep(ctx)
	if err != nil {
		if httpx.StatusFor(err) >= http.StatusInternalServerError {
			obs.WithTrace(r.Context(), s.log).Error("triggered sweep failed", zap.Error(err))
		}
		httpx.Fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
