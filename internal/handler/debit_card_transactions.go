package handler

import (
	"net/http"

	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/gorilla/mux"
)

// ListDebitCardTransactions handles GET /debit-card-transactions?debit_card_id={id}
func (h *Handler) ListDebitCardTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	query := input{}
	if raw := r.URL.Query().Get("debit_card_id"); raw != "" {
		query["debit_card_id"] = raw
	}
	verr := &service.ValidationError{}
	debitCardID := query.requiredInt("debit_card_id", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	transactions, err := h.svc.ListDebitCardTransactions(r.Context(), userID, debitCardID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDebitCardTransactionResources(transactions))
}

// CreateDebitCardTransaction handles POST /debit-card-transactions
func (h *Handler) CreateDebitCardTransaction(w http.ResponseWriter, r *http.Request) {
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
	debitCardID := in.requiredInt("debit_card_id", verr)
	amount := in.requiredDecimal("amount", verr)
	currencyCode := in.requiredString("currency_code", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	t, err := h.svc.CreateDebitCardTransaction(r.Context(), userID, debitCardID, amount, currencyCode)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newDebitCardTransactionResource(t))
}

// ShowDebitCardTransaction handles GET /debit-card-transactions/{id}
func (h *Handler) ShowDebitCardTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(mux.Vars(r))
	if !ok {
		h.respondError(w, r, service.ErrNotFound)
		return
	}

	t, err := h.svc.GetDebitCardTransaction(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newDebitCardTransactionResource(t))
}
