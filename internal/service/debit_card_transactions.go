package service

import (
	"context"
	"errors"

	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/policy"
	"github.com/Dan9191/debit-card-service/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	amountScale = 2
	// Exponent bounds are checked before any arithmetic, which rescales to the exponent
	minAmountExponent = -(amountScale + 6)
	maxAmountExponent = 13
)

var maxAmount = decimal.RequireFromString("9999999999999.99")

// ListDebitCardTransactions returns the transactions of one of the caller's cards
func (s *Service) ListDebitCardTransactions(ctx context.Context, userID, debitCardID int64) ([]models.DebitCardTransaction, error) {
	if _, err := s.transactionCard(ctx, userID, debitCardID); err != nil {
		return nil, err
	}
	return s.repo.ListDebitCardTransactions(ctx, debitCardID)
}

// CreateDebitCardTransaction records a transaction on one of the caller's cards
func (s *Service) CreateDebitCardTransaction(ctx context.Context, userID, debitCardID int64, amount decimal.Decimal, currencyCode string) (*models.DebitCardTransaction, error) {
	verr := &ValidationError{}
	if !amount.IsPositive() {
		verr.Add("amount", "The amount must be greater than 0.")
	} else if amount.Exponent() > maxAmountExponent {
		verr.Add("amount", "The amount is too large.")
	} else if amount.Exponent() < minAmountExponent {
		verr.Add("amount", "The amount may not have more than 2 decimal places.")
	} else if amount.GreaterThan(maxAmount) {
		verr.Add("amount", "The amount is too large.")
	} else if !amount.Equal(amount.Truncate(amountScale)) {
		verr.Add("amount", "The amount may not have more than 2 decimal places.")
	}
	if !s.currencies.Supports(currencyCode) {
		verr.Add("currency_code", "The selected currency code is invalid.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if _, err := s.transactionCard(ctx, userID, debitCardID); err != nil {
		return nil, err
	}

	t := &models.DebitCardTransaction{
		DebitCardID:  debitCardID,
		Amount:       amount,
		CurrencyCode: currencyCode,
	}
	err := s.repo.CreateDebitCardTransaction(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidDebitCard()
	}
	if err != nil {
		return nil, err
	}

	s.log.Infof("Transaction %d recorded on debit card %d", t.ID, debitCardID)
	return t, nil
}

// GetDebitCardTransaction returns a transaction whose card belongs to the caller
func (s *Service) GetDebitCardTransaction(ctx context.Context, userID, id int64) (*models.DebitCardTransaction, error) {
	t, err := s.repo.FindDebitCardTransaction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	card, err := s.repo.FindDebitCard(ctx, t.DebitCardID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(userID, card); err != nil {
		s.log.Warnf("User %d denied access to transaction %d", userID, id)
		return nil, err
	}
	return t, nil
}

// transactionCard resolves the card named by a debit_card_id input.
// A missing card is a validation failure on that field, a foreign one is forbidden
func (s *Service) transactionCard(ctx context.Context, userID, debitCardID int64) (*models.DebitCard, error) {
	card, err := s.ownedCard(ctx, userID, debitCardID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalidDebitCard()
	}
	return card, err
}

func invalidDebitCard() error {
	return NewValidationError("debit_card_id", "The selected debit card id is invalid.")
}
