package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/policy"
	"github.com/Dan9191/debit-card-service/internal/repository"
	"github.com/Dan9191/debit-card-service/internal/utils"
)

const (
	maxCardTypeLength  = 255
	cardNumberAttempts = 5
)

// ListDebitCards returns the caller's non-deleted cards; deactivated cards only when includeInactive
func (s *Service) ListDebitCards(ctx context.Context, userID int64, includeInactive bool) ([]models.DebitCard, error) {
	cards, err := s.repo.ListDebitCards(ctx, userID, includeInactive)
	if err != nil {
		return nil, err
	}
	cards = policy.Filter(userID, cards)
	for i := range cards {
		if err := s.reveal(&cards[i]); err != nil {
			return nil, err
		}
	}
	return cards, nil
}

// CreateDebitCard issues a new active card of the given type for the caller
func (s *Service) CreateDebitCard(ctx context.Context, userID int64, cardType string) (*models.DebitCard, error) {
	cardType = strings.TrimSpace(cardType)
	if cardType == "" {
		return nil, NewValidationError("type", "The type field is required.")
	}
	if utf8.RuneCountInString(cardType) > maxCardTypeLength {
		return nil, NewValidationError("type", fmt.Sprintf("The type may not be greater than %d characters.", maxCardTypeLength))
	}

	now := s.timestamp()
	for attempt := 1; attempt <= cardNumberAttempts; attempt++ {
		cardNumber, err := utils.GenerateCardNumber(utils.IssuerPrefix(cardType), utils.CardNumberLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate card number: %w", err)
		}
		encryptedNumber, err := utils.Encrypt(cardNumber, s.config.EncryptionKeyBytes())
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt card number: %w", err)
		}

		card := &models.DebitCard{
			UserID:         userID,
			Number:         encryptedNumber,
			NumberHMAC:     utils.GenerateHMAC(cardNumber, s.config.HMACSecret),
			Type:           cardType,
			ExpirationDate: utils.GenerateExpirationDate(now, s.config.CardValidityYears),
		}

		err = s.repo.CreateDebitCard(ctx, card)
		if errors.Is(err, repository.ErrDuplicateCardNumber) {
			s.log.Debugf("Card number collision on attempt %d, regenerating", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		card.Number = cardNumber
		s.log.Infof("Debit card %d issued for user %d", card.ID, userID)
		s.notifyOwner(ctx, card, s.notifier.CardIssued)
		return card, nil
	}
	return nil, fmt.Errorf("failed to issue a unique card number after %d attempts", cardNumberAttempts)
}

// GetDebitCard returns one of the caller's cards
func (s *Service) GetDebitCard(ctx context.Context, userID, id int64) (*models.DebitCard, error) {
	card, err := s.ownedCard(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.reveal(card); err != nil {
		return nil, err
	}
	return card, nil
}

// SetDebitCardActive activates or deactivates one of the caller's cards.
// Deactivating an already disabled card keeps its original disabled_at
func (s *Service) SetDebitCardActive(ctx context.Context, userID, id int64, active bool) (*models.DebitCard, error) {
	card, err := s.ownedCard(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	wasActive := card.IsActive()
	disabledAt := card.DisabledAt
	if active {
		disabledAt = nil
	} else if wasActive {
		now := s.timestamp()
		disabledAt = &now
	}

	updated, err := s.repo.SetDebitCardDisabledAt(ctx, id, disabledAt)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.reveal(updated); err != nil {
		return nil, err
	}

	if wasActive != updated.IsActive() {
		s.log.Infof("Debit card %d active=%t for user %d", id, active, userID)
		s.notifyOwner(ctx, updated, s.notifier.CardStatusChanged)
	}
	return updated, nil
}

// DeleteDebitCard soft-deletes one of the caller's cards.
// Cards with transactions are kept and ErrCardHasTransactions is returned
func (s *Service) DeleteDebitCard(ctx context.Context, userID, id int64) error {
	if _, err := s.ownedCard(ctx, userID, id); err != nil {
		return err
	}

	err := s.repo.SoftDeleteDebitCard(ctx, id, s.timestamp())
	switch {
	case errors.Is(err, repository.ErrCardHasTransactions):
		return ErrCardHasTransactions
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return err
	}

	s.log.Infof("Debit card %d deleted by user %d", id, userID)
	return nil
}

// DisableExpiredDebitCards disables every active card past its expiration date
func (s *Service) DisableExpiredDebitCards(ctx context.Context) (int64, error) {
	n, err := s.repo.DisableExpiredDebitCards(ctx, s.timestamp())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infof("Disabled %d expired debit cards", n)
	}
	return n, nil
}

// ownedCard loads a non-deleted card and checks the caller owns it
func (s *Service) ownedCard(ctx context.Context, userID, id int64) (*models.DebitCard, error) {
	card, err := s.repo.FindDebitCard(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(userID, card); err != nil {
		s.log.Warnf("User %d denied access to debit card %d", userID, id)
		return nil, err
	}
	return card, nil
}

// reveal replaces the stored ciphertext with the card number
func (s *Service) reveal(card *models.DebitCard) error {
	number, err := utils.Decrypt(card.Number, s.config.EncryptionKeyBytes())
	if err != nil {
		return fmt.Errorf("failed to decrypt card %d number: %w", card.ID, err)
	}
	card.Number = number
	return nil
}
