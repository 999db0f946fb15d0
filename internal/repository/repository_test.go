package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newTestRepository connects to TEST_DB_CONN and migrates the schema
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	conn := os.Getenv("TEST_DB_CONN")
	if conn == "" {
		t.Skip("TEST_DB_CONN not set, skipping Postgres repository tests")
	}

	db, err := sql.Open("postgres", conn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	repo := NewRepository(db)
	for i := 0; i < 2; i++ {
		if err := repo.Migrate(ctx); err != nil {
			t.Fatalf("Migrate run %d returned error: %v", i+1, err)
		}
	}
	return repo
}

func createPgUser(t *testing.T, repo *Repository) *models.User {
	t.Helper()
	user := &models.User{
		Username:     "user",
		Email:        "User-" + uuid.NewString() + "@Example.com",
		PasswordHash: "hash",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	return user
}

func createPgCard(t *testing.T, repo *Repository, userID int64, expiresAt time.Time) *models.DebitCard {
	t.Helper()
	card := &models.DebitCard{
		UserID:         userID,
		Number:         "encrypted",
		NumberHMAC:     utils.GenerateHMAC(uuid.NewString(), "test"),
		Type:           "VISA",
		ExpirationDate: expiresAt,
	}
	if err := repo.CreateDebitCard(context.Background(), card); err != nil {
		t.Fatalf("CreateDebitCard returned error: %v", err)
	}
	return card
}

func createPgTransaction(repo *Repository, cardID int64) error {
	return repo.CreateDebitCardTransaction(context.Background(), &models.DebitCardTransaction{
		DebitCardID:  cardID,
		Amount:       decimal.RequireFromString("12.34"),
		CurrencyCode: "USD",
	})
}

func TestRepository_UsersMatchEmailIgnoringCase(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createPgUser(t, repo)

	found, err := repo.FindUserByEmail(ctx, strings.ToLower(user.Email))
	if err != nil || found.ID != user.ID {
		t.Fatalf("expected to find user %d, got %v, %v", user.ID, found, err)
	}

	dup := &models.User{Username: "dup", Email: strings.ToUpper(user.Email), PasswordHash: "hash"}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := repo.FindUserByID(ctx, -1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_ListDebitCards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createPgUser(t, repo)
	other := createPgUser(t, repo)
	future := time.Now().AddDate(3, 0, 0)

	active := createPgCard(t, repo, user.ID, future)
	inactive := createPgCard(t, repo, user.ID, future)
	deleted := createPgCard(t, repo, user.ID, future)
	createPgCard(t, repo, other.ID, future)

	disabledAt := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := repo.SetDebitCardDisabledAt(ctx, inactive.ID, &disabledAt)
	if err != nil {
		t.Fatalf("SetDebitCardDisabledAt returned error: %v", err)
	}
	if updated.DisabledAt == nil || !updated.DisabledAt.Equal(disabledAt) {
		t.Fatalf("disabled_at = %v, want %v", updated.DisabledAt, disabledAt)
	}
	if err := repo.SoftDeleteDebitCard(ctx, deleted.ID, time.Now()); err != nil {
		t.Fatalf("SoftDeleteDebitCard returned error: %v", err)
	}

	ids := func(cards []models.DebitCard) []int64 {
		out := []int64{}
		for _, c := range cards {
			out = append(out, c.ID)
		}
		return out
	}

	cards, err := repo.ListDebitCards(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("ListDebitCards returned error: %v", err)
	}
	if got := ids(cards); len(got) != 1 || got[0] != active.ID {
		t.Errorf("active list = %v, want [%d]", got, active.ID)
	}

	cards, err = repo.ListDebitCards(ctx, user.ID, true)
	if err != nil {
		t.Fatalf("ListDebitCards returned error: %v", err)
	}
	if got := ids(cards); len(got) != 2 || got[0] != active.ID || got[1] != inactive.ID {
		t.Errorf("full list = %v, want [%d %d]", got, active.ID, inactive.ID)
	}
}

func TestRepository_SoftDeleteGuardsTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createPgUser(t, repo)
	used := createPgCard(t, repo, user.ID, time.Now().AddDate(3, 0, 0))
	unused := createPgCard(t, repo, user.ID, time.Now().AddDate(3, 0, 0))

	if err := createPgTransaction(repo, used.ID); err != nil {
		t.Fatalf("CreateDebitCardTransaction returned error: %v", err)
	}
	if err := repo.SoftDeleteDebitCard(ctx, used.ID, time.Now()); !errors.Is(err, ErrCardHasTransactions) {
		t.Fatalf("expected ErrCardHasTransactions, got %v", err)
	}
	if _, err := repo.FindDebitCard(ctx, used.ID); err != nil {
		t.Fatalf("card with transactions should remain visible: %v", err)
	}

	transactions, err := repo.ListDebitCardTransactions(ctx, used.ID)
	if err != nil || len(transactions) != 1 {
		t.Fatalf("ListDebitCardTransactions = %v, %v", transactions, err)
	}
	if !transactions[0].Amount.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("amount = %s, want 12.34", transactions[0].Amount)
	}
	found, err := repo.FindDebitCardTransaction(ctx, transactions[0].ID)
	if err != nil || found.DebitCardID != used.ID {
		t.Fatalf("FindDebitCardTransaction = %v, %v", found, err)
	}

	if err := repo.SoftDeleteDebitCard(ctx, unused.ID, time.Now()); err != nil {
		t.Fatalf("SoftDeleteDebitCard returned error: %v", err)
	}
	if _, err := repo.FindDebitCard(ctx, unused.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted card: expected ErrNotFound, got %v", err)
	}
	if err := repo.SoftDeleteDebitCard(ctx, unused.ID, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := createPgTransaction(repo, unused.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("transaction on deleted card: expected ErrNotFound, got %v", err)
	}
}

func TestRepository_ConcurrentDeleteAndTransaction(t *testing.T) {
	repo := newTestRepository(t)
	user := createPgUser(t, repo)

	for i := 0; i < 20; i++ {
		card := createPgCard(t, repo, user.ID, time.Now().AddDate(3, 0, 0))

		var wg sync.WaitGroup
		var deleteErr, insertErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			deleteErr = repo.SoftDeleteDebitCard(context.Background(), card.ID, time.Now())
		}()
		go func() {
			defer wg.Done()
			insertErr = createPgTransaction(repo, card.ID)
		}()
		wg.Wait()

		switch {
		case deleteErr == nil && errors.Is(insertErr, ErrNotFound):
		case insertErr == nil && errors.Is(deleteErr, ErrCardHasTransactions):
		default:
			t.Fatalf("card %d: delete=%v insert=%v", card.ID, deleteErr, insertErr)
		}
	}
}

func TestRepository_DisableExpiredDebitCards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	user := createPgUser(t, repo)
	now := time.Now().UTC().Truncate(time.Microsecond)

	expired := createPgCard(t, repo, user.ID, now.AddDate(0, -1, 0))
	current := createPgCard(t, repo, user.ID, now.AddDate(1, 0, 0))

	n, err := repo.DisableExpiredDebitCards(ctx, now)
	if err != nil {
		t.Fatalf("DisableExpiredDebitCards returned error: %v", err)
	}
	if n < 1 {
		t.Errorf("disabled %d cards, want at least 1", n)
	}

	card, err := repo.FindDebitCard(ctx, expired.ID)
	if err != nil {
		t.Fatalf("FindDebitCard returned error: %v", err)
	}
	if card.IsActive() || !card.DisabledAt.Equal(now) {
		t.Errorf("expired card disabled_at = %v, want %v", card.DisabledAt, now)
	}
	if card, _ := repo.FindDebitCard(ctx, current.ID); card == nil || !card.IsActive() {
		t.Error("current card should stay active")
	}
}
