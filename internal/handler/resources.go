package handler

import (
	"time"

	"github.com/Dan9191/debit-card-service/internal/models"
)

const dateTimeLayout = "2006-01-02 15:04:05"

type debitCardResource struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	Type           string `json:"type"`
	ExpirationDate string `json:"expiration_date"`
	IsActive       bool   `json:"is_active"`
}

type debitCardTransactionResource struct {
	ID           int64  `json:"id"`
	DebitCardID  int64  `json:"debit_card_id"`
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	CreatedAt    string `json:"created_at"`
}

type userResource struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type tokenResource struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

func newDebitCardResource(card *models.DebitCard) debitCardResource {
	return debitCardResource{
		ID:             card.ID,
		Number:         card.Number,
		Type:           card.Type,
		ExpirationDate: formatTime(card.ExpirationDate),
		IsActive:       card.IsActive(),
	}
}

func newDebitCardResources(cards []models.DebitCard) []debitCardResource {
	out := make([]debitCardResource, 0, len(cards))
	for i := range cards {
		out = append(out, newDebitCardResource(&cards[i]))
	}
	return out
}

func newDebitCardTransactionResource(t *models.DebitCardTransaction) debitCardTransactionResource {
	return debitCardTransactionResource{
		ID:           t.ID,
		DebitCardID:  t.DebitCardID,
		Amount:       t.Amount.StringFixed(2),
		CurrencyCode: t.CurrencyCode,
		CreatedAt:    formatTime(t.CreatedAt),
	}
}

func newDebitCardTransactionResources(transactions []models.DebitCardTransaction) []debitCardTransactionResource {
	out := make([]debitCardTransactionResource, 0, len(transactions))
	for i := range transactions {
		out = append(out, newDebitCardTransactionResource(&transactions[i]))
	}
	return out
}

func newUserResource(u *models.User) userResource {
	return userResource{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: formatTime(u.CreatedAt),
	}
}
