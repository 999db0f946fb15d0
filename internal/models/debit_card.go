package models

import "time"

// DebitCard represents a customer's debit card.
// A nil DisabledAt means the card is active; a non-nil DeletedAt means it was soft-deleted
type DebitCard struct {
	ID             int64
	UserID         int64
	Number         string // Decrypted for response, encrypted at rest
	NumberHMAC     string
	Type           string
	ExpirationDate time.Time
	DisabledAt     *time.Time
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the card has not been disabled
func (c DebitCard) IsActive() bool {
	return c.DisabledAt == nil
}

// IsDeleted reports whether the card was soft-deleted
func (c DebitCard) IsDeleted() bool {
	return c.DeletedAt != nil
}

// OwnerID returns the id of the user the card belongs to
func (c DebitCard) OwnerID() int64 {
	return c.UserID
}
