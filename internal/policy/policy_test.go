package policy

import (
	"errors"
	"testing"

	"github.com/Dan9191/debit-card-service/internal/models"
)

func TestAuthorize(t *testing.T) {
	card := models.DebitCard{ID: 10, UserID: 1}

	tests := []struct {
		name    string
		caller  int64
		wantErr error
	}{
		{name: "owner", caller: 1, wantErr: nil},
		{name: "other user", caller: 2, wantErr: ErrForbidden},
		{name: "anonymous", caller: 0, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, card)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFilterDropsForeignResources(t *testing.T) {
	cards := []models.DebitCard{
		{ID: 1, UserID: 7},
		{ID: 2, UserID: 8},
		{ID: 3, UserID: 7},
	}

	got := Filter(7, cards)
	if len(got) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("expected cards 1 and 3 in order, got %d and %d", got[0].ID, got[1].ID)
	}
}

func TestFilterEmpty(t *testing.T) {
	got := Filter[models.DebitCard](7, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
