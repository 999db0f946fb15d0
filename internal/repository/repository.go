package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const debitCardColumns = `id, user_id, number, number_hmac, type, expiration_date, disabled_at, deleted_at, created_at, updated_at`

// Repository provides database operations backed by PostgreSQL
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO bank.users (username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email, ignoring letter case
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, `WHERE LOWER(email) = LOWER($1)`, email)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM bank.users ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListDebitCards returns the non-deleted cards of a user ordered by id
func (r *Repository) ListDebitCards(ctx context.Context, userID int64, includeInactive bool) ([]models.DebitCard, error) {
	query := `
		SELECT ` + debitCardColumns + `
		FROM bank.debit_cards
		WHERE user_id = $1 AND deleted_at IS NULL AND ($2::boolean OR disabled_at IS NULL)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list debit cards: %w", err)
	}
	defer rows.Close()

	cards := []models.DebitCard{}
	for rows.Next() {
		card, err := scanDebitCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debit card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list debit cards: %w", err)
	}
	return cards, nil
}

// CreateDebitCard stores a new card; the number is expected to be encrypted already
func (r *Repository) CreateDebitCard(ctx context.Context, card *models.DebitCard) error {
	query := `
		INSERT INTO bank.debit_cards (user_id, number, number_hmac, type, expiration_date, disabled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		card.UserID, card.Number, card.NumberHMAC, card.Type, card.ExpirationDate, card.DisabledAt,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCardNumber
	}
	if err != nil {
		return fmt.Errorf("failed to create debit card: %w", err)
	}
	return nil
}

// FindDebitCard retrieves a non-deleted card by id
func (r *Repository) FindDebitCard(ctx context.Context, id int64) (*models.DebitCard, error) {
	query := `
		SELECT ` + debitCardColumns + `
		FROM bank.debit_cards
		WHERE id = $1 AND deleted_at IS NULL`
	card, err := scanDebitCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debit card: %w", err)
	}
	return card, nil
}

// SetDebitCardDisabledAt updates the activation timestamp; nil activates the card
func (r *Repository) SetDebitCardDisabledAt(ctx context.Context, id int64, disabledAt *time.Time) (*models.DebitCard, error) {
	query := `
		UPDATE bank.debit_cards
		SET disabled_at = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + debitCardColumns
	card, err := scanDebitCard(r.db.QueryRowContext(ctx, query, id, disabledAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update debit card: %w", err)
	}
	return card, nil
}

// SoftDeleteDebitCard marks a card deleted unless it has transactions.
// The card row stays locked until commit so no transaction can be added meanwhile
func (r *Repository) SoftDeleteDebitCard(ctx context.Context, id int64, deletedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cardID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bank.debit_cards WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id,
	).Scan(&cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock debit card: %w", err)
	}

	var hasTransactions bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bank.debit_card_transactions WHERE debit_card_id = $1)`, id,
	).Scan(&hasTransactions)
	if err != nil {
		return fmt.Errorf("failed to check debit card transactions: %w", err)
	}
	if hasTransactions {
		return ErrCardHasTransactions
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bank.debit_cards SET deleted_at = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, deletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to delete debit card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit debit card deletion: %w", err)
	}
	return nil
}

// DisableExpiredDebitCards disables active cards whose expiration date is before now
func (r *Repository) DisableExpiredDebitCards(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bank.debit_cards
		SET disabled_at = $1, updated_at = CURRENT_TIMESTAMP
		WHERE disabled_at IS NULL AND deleted_at IS NULL AND expiration_date < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to disable expired debit cards: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count disabled debit cards: %w", err)
	}
	return n, nil
}

// ListDebitCardTransactions returns the transactions of a card ordered by id
func (r *Repository) ListDebitCardTransactions(ctx context.Context, debitCardID int64) ([]models.DebitCardTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, debit_card_id, amount, currency_code, created_at, updated_at
		FROM bank.debit_card_transactions
		WHERE debit_card_id = $1
		ORDER BY id`, debitCardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debit card transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.DebitCardTransaction{}
	for rows.Next() {
		var t models.DebitCardTransaction
		if err := rows.Scan(&t.ID, &t.DebitCardID, &t.Amount, &t.CurrencyCode, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debit card transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list debit card transactions: %w", err)
	}
	return transactions, nil
}

// CreateDebitCardTransaction stores a transaction while holding a share lock on its card
func (r *Repository) CreateDebitCardTransaction(ctx context.Context, t *models.DebitCardTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cardID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM bank.debit_cards WHERE id = $1 AND deleted_at IS NULL FOR SHARE`, t.DebitCardID,
	).Scan(&cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock debit card: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO bank.debit_card_transactions (debit_card_id, amount, currency_code, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`,
		t.DebitCardID, t.Amount, t.CurrencyCode,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create debit card transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit debit card transaction: %w", err)
	}
	return nil
}

// FindDebitCardTransaction retrieves a transaction by id
func (r *Repository) FindDebitCardTransaction(ctx context.Context, id int64) (*models.DebitCardTransaction, error) {
	t := &models.DebitCardTransaction{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, debit_card_id, amount, currency_code, created_at, updated_at
		FROM bank.debit_card_transactions
		WHERE id = $1`, id,
	).Scan(&t.ID, &t.DebitCardID, &t.Amount, &t.CurrencyCode, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debit card transaction: %w", err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebitCard(row rowScanner) (*models.DebitCard, error) {
	card := &models.DebitCard{}
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.Number,
		&card.NumberHMAC,
		&card.Type,
		&card.ExpirationDate,
		&card.DisabledAt,
		&card.DeletedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
