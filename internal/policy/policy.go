// Package policy decides whether a caller may act on a resource. Every
// resource resolves, through its ownership chain, to the user that controls it:
// a debit card to its user, a transaction to its card's user
package policy

import "errors"

// ErrForbidden is returned when the resource belongs to another user
var ErrForbidden = errors.New("this action is unauthorized")

// Owned is implemented by resources that resolve to an owning user
type Owned interface {
	OwnerID() int64
}

// Allows reports whether callerID owns resource
func Allows(callerID int64, resource Owned) bool {
	return callerID != 0 && resource.OwnerID() == callerID
}

// Authorize returns ErrForbidden unless callerID owns resource
func Authorize(callerID int64, resource Owned) error {
	if !Allows(callerID, resource) {
		return ErrForbidden
	}
	return nil
}

// Filter keeps the items owned by callerID, preserving order
func Filter[T Owned](callerID int64, items []T) []T {
	owned := make([]T, 0, len(items))
	for _, item := range items {
		if Allows(callerID, item) {
			owned = append(owned, item)
		}
	}
	return owned
}
