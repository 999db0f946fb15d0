package handler

import (
	"net/http"

	"github.com/Dan9191/debit-card-service/internal/middleware"
	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API on top of the service layer
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Health reports whether the store is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller returns the authenticated user id, writing a 401 when there is none
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Unauthenticated.")
	}
	return userID, ok
}
