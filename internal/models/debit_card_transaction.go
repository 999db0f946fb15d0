package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebitCardTransaction represents an immutable transaction made with a debit card
type DebitCardTransaction struct {
	ID           int64
	DebitCardID  int64
	Amount       decimal.Decimal
	CurrencyCode string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
