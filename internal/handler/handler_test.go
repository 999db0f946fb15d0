package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/repository"
	"github.com/Dan9191/debit-card-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
)

type testEnv struct {
	router *mux.Router
	store  *repository.MemoryStore
	svc    *service.Service
	now    time.Time
}

type testUser struct {
	id    int64
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	viper.Reset()
	t.Setenv("DB_DRIVER", config.DriverMemory)
	t.Setenv("SMTP_HOST", "")
	cfg, err := config.NewConfig()
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}

	logger, _ := test.NewNullLogger()
	now := time.Now().UTC().Truncate(time.Second)
	store := repository.NewMemoryStore()
	svc := service.NewService(store, logger, cfg, service.WithClock(func() time.Time { return now }))

	return &testEnv{
		router: NewRouter(NewHandler(svc, logger), cfg, logger),
		store:  store,
		svc:    svc,
		now:    now,
	}
}

func (e *testEnv) user(t *testing.T, name string) testUser {
	t.Helper()
	ctx := context.Background()
	u, err := e.svc.Register(ctx, name, name+"@example.com", "password123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	token, err := e.svc.Login(ctx, name+"@example.com", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	return testUser{id: u.ID, token: token.AccessToken}
}

func (e *testEnv) card(t *testing.T, u testUser, cardType string) *models.DebitCard {
	t.Helper()
	card, err := e.svc.CreateDebitCard(context.Background(), u.id, cardType)
	if err != nil {
		t.Fatalf("CreateDebitCard returned error: %v", err)
	}
	return card
}

func (e *testEnv) transaction(t *testing.T, u testUser, cardID int64, amount string) *models.DebitCardTransaction {
	t.Helper()
	tx, err := e.svc.CreateDebitCardTransaction(context.Background(), u.id, cardID, decimal.RequireFromString(amount), "IDR")
	if err != nil {
		t.Fatalf("CreateDebitCardTransaction returned error: %v", err)
	}
	return tx
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d, body %s", rr.Code, want, rr.Body.String())
	}
}

func assertFieldError(t *testing.T, rr *httptest.ResponseRecorder, field string) {
	t.Helper()
	assertStatus(t, rr, http.StatusUnprocessableEntity)
	var body validationResponse
	decode(t, rr, &body)
	if len(body.Errors[field]) == 0 {
		t.Fatalf("expected an error on %q, got %v", field, body.Errors)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/health", "", nil)
	assertStatus(t, rr, http.StatusOK)

	var body map[string]string
	decode(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/debit-cards"},
		{http.MethodPost, "/debit-cards"},
		{http.MethodGet, "/debit-cards/1"},
		{http.MethodPut, "/debit-cards/1"},
		{http.MethodDelete, "/debit-cards/1"},
		{http.MethodGet, "/debit-card-transactions?debit_card_id=1"},
		{http.MethodPost, "/debit-card-transactions"},
		{http.MethodGet, "/debit-card-transactions/1"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := env.do(t, route.method, route.path, "", nil)
			assertStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	assertStatus(t, env.do(t, http.MethodGet, "/accounts", alice.token, nil), http.StatusNotFound)
	assertStatus(t, env.do(t, http.MethodPatch, "/debit-cards/1", alice.token, nil), http.StatusMethodNotAllowed)
}
