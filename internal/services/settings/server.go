package settings

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/NordCoder/Pushkeeper/internal/domain/user"
	"github.com/NordCoder/Pushkeeper/internal/httpx"
	"github.com/NordCoder/Pushkeeper/internal/obs"
	"go.uber.org/zap"
)

// Server is the admin-facing settings API. Every route requires
// "Authorization: Bearer <admin token>".
type Server struct {
	log   *zap.Logger
	uc    *Usecase
	token string
}

func NewServer(log *zap.Logger, uc *Usecase, adminToken string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "settings.http")), uc: uc, token: adminToken}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("GET /v1/users/{id}", s.admin(s.getUser))
	mux.Handle("PUT /v1/users", s.admin(s.upsertUser))
	mux.Handle("PATCH /v1/users/{id}/settings", s.admin(s.updateSettings))
	mux.Handle("GET /v1/users/{id}/notifications", s.admin(s.notifications))
}

func (s *Server) admin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !httpx.SecretEqual(s.token, token) {
			httpx.WriteError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		next(w, r)
	})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		obs.WithTrace(r.Context(), s.log).Error("settings request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	httpx.Fail(w, err)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "bad user id")
		return
	}
	usr, err := s.uc.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, usr)
}

type upsertRequest struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) upsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed json")
		return
	}
	usr, err := s.uc.UpsertUser(r.Context(), &user.User{ExternalID: req.ExternalID, DisplayName: req.DisplayName})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, usr)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "bad user id")
		return
	}
	var in user.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "malformed json")
		return
	}
	usr, err := s.uc.UpdateSettings(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, usr)
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "bad user id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.uc.Notifications(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
