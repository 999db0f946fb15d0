package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assertStatus(t, rr, http.StatusCreated)

	var user map[string]interface{}
	decode(t, rr, &user)
	if user["email"] != "alice@example.com" || user["username"] != "alice" {
		t.Errorf("unexpected user %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash must not be returned")
	}

	dup := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assertFieldError(t, dup, "email")
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/register", "", map[string]string{"email": "not-an-email", "password": "short"})
	assertStatus(t, rr, http.StatusUnprocessableEntity)

	var body validationResponse
	decode(t, rr, &body)
	for _, field := range []string{"username", "email", "password"} {
		if len(body.Errors[field]) == 0 {
			t.Errorf("expected an error on %q, got %v", field, body.Errors)
		}
	}
	if body.Message != "The given data was invalid." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRegister_LongPassword(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": strings.Repeat("p", 80),
	})
	assertFieldError(t, rr, "password")
}

func TestToken_PasswordGrant(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")

	form := url.Values{
		"grant_type": {"password"},
		"username":   {"alice@example.com"},
		"password":   {"password123"},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assertStatus(t, rr, http.StatusOK)

	var token tokenResource
	decode(t, rr, &token)
	if token.AccessToken == "" || token.TokenType != "Bearer" || token.ExpiresIn <= 0 {
		t.Fatalf("unexpected token %+v", token)
	}

	assertStatus(t, env.do(t, http.MethodGet, "/debit-cards", token.AccessToken, nil), http.StatusOK)
}

func TestToken_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")

	rr := env.do(t, http.MethodPost, "/oauth/token", "", map[string]string{
		"grant_type": "client_credentials",
		"username":   "alice@example.com",
		"password":   "password123",
	})
	assertStatus(t, rr, http.StatusBadRequest)
	var body map[string]string
	decode(t, rr, &body)
	if body["error"] != "unsupported_grant_type" {
		t.Errorf("error = %q", body["error"])
	}

	rr = env.do(t, http.MethodPost, "/oauth/token", "", map[string]string{
		"grant_type": "password",
		"username":   "alice@example.com",
		"password":   "wrong-password",
	})
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")

	rr := env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	assertStatus(t, rr, http.StatusOK)
	var token tokenResource
	decode(t, rr, &token)
	if token.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	assertStatus(t, env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "nobody@example.com", "password": "password123"}), http.StatusUnauthorized)
	assertFieldError(t, env.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com"}), "password")
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/debit-cards", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice.token)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	assertStatus(t, rr, http.StatusBadRequest)
}
