package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/debit-card-service/internal/models"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateCardNumber = errors.New("card number already issued")
	ErrCardHasTransactions = errors.New("debit card has transactions")
)

// Store is the persistence contract of the service.
// Emails match without regard to letter case. Debit card lookups never return soft-deleted cards
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)

	ListDebitCards(ctx context.Context, userID int64, includeInactive bool) ([]models.DebitCard, error)
	CreateDebitCard(ctx context.Context, card *models.DebitCard) error
	FindDebitCard(ctx context.Context, id int64) (*models.DebitCard, error)
	SetDebitCardDisabledAt(ctx context.Context, id int64, disabledAt *time.Time) (*models.DebitCard, error)
	// SoftDeleteDebitCard fails with ErrCardHasTransactions if the card has any transactions
	SoftDeleteDebitCard(ctx context.Context, id int64, deletedAt time.Time) error
	DisableExpiredDebitCards(ctx context.Context, now time.Time) (int64, error)

	ListDebitCardTransactions(ctx context.Context, debitCardID int64) ([]models.DebitCardTransaction, error)
	// CreateDebitCardTransaction fails with ErrNotFound if the card is missing or deleted
	CreateDebitCardTransaction(ctx context.Context, tx *models.DebitCardTransaction) error
	FindDebitCardTransaction(ctx context.Context, id int64) (*models.DebitCardTransaction, error)
}
