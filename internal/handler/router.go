package handler

import (
	"net/http"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the public and authenticated routes
func NewRouter(h *Handler, cfg *config.Config, logger *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "Not Found.")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed.")
	})

	// Public routes
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/oauth/token", h.Token).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/debit-cards", h.ListDebitCards).Methods(http.MethodGet)
	authRouter.HandleFunc("/debit-cards", h.CreateDebitCard).Methods(http.MethodPost)
	authRouter.HandleFunc("/debit-cards/{id:[0-9]+}", h.ShowDebitCard).Methods(http.MethodGet)
	authRouter.HandleFunc("/debit-cards/{id:[0-9]+}", h.UpdateDebitCard).Methods(http.MethodPut)
	authRouter.HandleFunc("/debit-cards/{id:[0-9]+}", h.DeleteDebitCard).Methods(http.MethodDelete)
	authRouter.HandleFunc("/debit-card-transactions", h.ListDebitCardTransactions).Methods(http.MethodGet)
	authRouter.HandleFunc("/debit-card-transactions", h.CreateDebitCardTransaction).Methods(http.MethodPost)
	authRouter.HandleFunc("/debit-card-transactions/{id:[0-9]+}", h.ShowDebitCardTransaction).Methods(http.MethodGet)

	return r
}
