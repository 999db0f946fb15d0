package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/sirupsen/logrus"
)

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// respondError maps service errors onto status codes. Unexpected errors are
// logged and answered with a generic 500
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, service.ErrForbidden):
		respondMessage(w, http.StatusForbidden, "This action is unauthorized.")
	case errors.Is(err, service.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "Not Found.")
	case errors.Is(err, service.ErrCardHasTransactions):
		respondMessage(w, http.StatusConflict, "The debit card has transactions and cannot be deleted.")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, "The user credentials were incorrect.")
	default:
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Request failed: %v", err)
		respondMessage(w, http.StatusInternalServerError, "Server Error")
	}
}
