package handler

import (
	"net/http"

	"github.com/Dan9191/debit-card-service/internal/service"
)

const grantTypePassword = "password"

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	verr := &service.ValidationError{}
	username := in.optionalString("username", verr)
	email := in.optionalString("email", verr)
	password := in.optionalString("password", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.svc.Register(r.Context(), username, email, password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newUserResource(user))
}

// Token handles the OAuth2 password grant
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.badRequest(w, err)
		return
	}

	if grantType, _ := in["grant_type"].(string); grantType != grantTypePassword {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "unsupported_grant_type",
			"message": "The authorization grant type is not supported by the authorization server.",
		})
		return
	}
	h.issueToken(w, r, in, "username")
}

// Login handles email and password authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		h.badRequest(w, err)
		return
	}
	h.issueToken(w, r, in, "email")
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request, in input, emailKey string) {
	verr := &service.ValidationError{}
	email := in.requiredString(emailKey, verr)
	password := in.requiredString("password", verr)
	if err := verr.Err(); err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tokenResource{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	})
}
