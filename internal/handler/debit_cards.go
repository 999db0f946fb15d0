package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/gorilla/mux"
)

// ListDebitCards handles GET /debit-cards
func (h *Handler) ListDebitCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	includeInactive := false
	if raw := r.URL.Query().Get("include_inactive"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, r, service.NewValidationError("include_inactive", "The include inactive field must be true or false."))
			return
		}
		includeInactive = b
	}

	cards, err := h.svc.ListDebitCards(r.Context(), userID, includeInactive)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDebitCardResources(cards))
}

// CreateDebitCard handles POST /debit-cards
func (h *Handler) CreateDebitCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	verr := &service.ValidationError{}
	cardType := in.requiredString("type", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	card, err := h.svc.CreateDebitCard(r.Context(), userID, cardType)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newDebitCardResource(card))
}

// ShowDebitCard handles GET /debit-cards/{id}
func (h *Handler) ShowDebitCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(mux.Vars(r))
	if !ok {
		h.respondError(w, r, service.ErrNotFound)
		return
	}

	card, err := h.svc.GetDebitCard(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDebitCardResource(card))
}

// UpdateDebitCard handles PUT /debit-cards/{id}, toggling activation
func (h *Handler) UpdateDebitCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(mux.Vars(r))
	if !ok {
		h.respondError(w, r, service.ErrNotFound)
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	verr := &service.ValidationError{}
	active := in.requiredBool("is_active", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	card, err := h.svc.SetDebitCardActive(r.Context(), userID, id, active)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDebitCardResource(card))
}

// DeleteDebitCard handles DELETE /debit-cards/{id}
func (h *Handler) DeleteDebitCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(mux.Vars(r))
	if !ok {
		h.respondError(w, r, service.ErrNotFound)
		return
	}

	if err := h.svc.DeleteDebitCard(r.Context(), userID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondMessage(w, http.StatusRequestEntityTooLarge, "The request body is too large.")
		return
	}
	h.log.Debugf("Rejected request body: %v", err)
	respondMessage(w, http.StatusBadRequest, "The request body could not be parsed.")
}
