package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/Dan9191/debit-card-service/internal/policy"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = policy.ErrForbidden
	ErrCardHasTransactions = errors.New("debit card has transactions and cannot be deleted")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// ValidationError carries per-field messages for rejected input.
// Nothing is written when one is returned
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an error with a single field message
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add records a message for field
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Empty reports whether no messages were recorded
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// Err returns v, or nil when it has no messages
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for field := range v.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "invalid input: " + strings.Join(fields, ", ")
}
