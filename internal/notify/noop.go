package notify

import (
	"context"

	"github.com/Dan9191/debit-card-service/internal/models"
)

// Noop discards notices; used when SMTP is not configured
type Noop struct{}

func (Noop) CardIssued(context.Context, *models.User, *models.DebitCard) error { return nil }

func (Noop) CardStatusChanged(context.Context, *models.User, *models.DebitCard) error { return nil }
