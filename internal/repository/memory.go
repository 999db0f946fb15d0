package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/debit-card-service/internal/models"
)

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryStore)(nil)
)

// MemoryStore keeps everything in process memory. It backs local runs with
// DB_DRIVER=memory and the tests; data is lost on restart
type MemoryStore struct {
	mu           sync.Mutex
	users        map[int64]models.User
	cards        map[int64]models.DebitCard
	transactions map[int64]models.DebitCardTransaction
	lastID       int64
	now          func() time.Time
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]models.User),
		cards:        make(map[int64]models.DebitCard),
		transactions: make(map[int64]models.DebitCardTransaction),
		now:          time.Now,
	}
}

func (m *MemoryStore) nextID() int64 {
	m.lastID++
	return m.lastID
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	now := m.now()
	user.ID = m.nextID()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) ListDebitCards(ctx context.Context, userID int64, includeInactive bool) ([]models.DebitCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cards := []models.DebitCard{}
	for _, card := range m.cards {
		if card.UserID != userID || card.IsDeleted() {
			continue
		}
		if !includeInactive && !card.IsActive() {
			continue
		}
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (m *MemoryStore) CreateDebitCard(ctx context.Context, card *models.DebitCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.cards {
		if existing.NumberHMAC == card.NumberHMAC {
			return ErrDuplicateCardNumber
		}
	}
	now := m.now()
	card.ID = m.nextID()
	card.CreatedAt = now
	card.UpdatedAt = now
	m.cards[card.ID] = *card
	return nil
}

func (m *MemoryStore) FindDebitCard(ctx context.Context, id int64) (*models.DebitCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok || card.IsDeleted() {
		return nil, ErrNotFound
	}
	return &card, nil
}

func (m *MemoryStore) SetDebitCardDisabledAt(ctx context.Context, id int64, disabledAt *time.Time) (*models.DebitCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok || card.IsDeleted() {
		return nil, ErrNotFound
	}
	card.DisabledAt = copyTime(disabledAt)
	card.UpdatedAt = m.now()
	m.cards[id] = card
	return &card, nil
}

func (m *MemoryStore) SoftDeleteDebitCard(ctx context.Context, id int64, deletedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	if !ok || card.IsDeleted() {
		return ErrNotFound
	}
	for _, t := range m.transactions {
		if t.DebitCardID == id {
			return ErrCardHasTransactions
		}
	}
	card.DeletedAt = &deletedAt
	card.UpdatedAt = m.now()
	m.cards[id] = card
	return nil
}

func (m *MemoryStore) DisableExpiredDebitCards(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, card := range m.cards {
		if card.IsDeleted() || !card.IsActive() || !card.ExpirationDate.Before(now) {
			continue
		}
		disabledAt := now
		card.DisabledAt = &disabledAt
		card.UpdatedAt = m.now()
		m.cards[id] = card
		n++
	}
	return n, nil
}

func (m *MemoryStore) ListDebitCardTransactions(ctx context.Context, debitCardID int64) ([]models.DebitCardTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transactions := []models.DebitCardTransaction{}
	for _, t := range m.transactions {
		if t.DebitCardID == debitCardID {
			transactions = append(transactions, t)
		}
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].ID < transactions[j].ID })
	return transactions, nil
}

func (m *MemoryStore) CreateDebitCardTransaction(ctx context.Context, t *models.DebitCardTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[t.DebitCardID]
	if !ok || card.IsDeleted() {
		return ErrNotFound
	}
	now := m.now()
	t.ID = m.nextID()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.transactions[t.ID] = *t
	return nil
}

func (m *MemoryStore) FindDebitCardTransaction(ctx context.Context, id int64) (*models.DebitCardTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

// DebitCardRow returns a card including soft-deleted ones. Postgres keeps
// the same row; this lets callers confirm the row was retained
func (m *MemoryStore) DebitCardRow(id int64) (models.DebitCard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[id]
	return card, ok
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
