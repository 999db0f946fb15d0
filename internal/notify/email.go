package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending card notices via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// CardIssued tells the owner a new debit card was issued
func (s *Sender) CardIssued(ctx context.Context, user *models.User, card *models.DebitCard) error {
	return s.deliver(user, cardIssuedEmail(s.cfg.SenderEmail, user, card))
}

// CardStatusChanged tells the owner a debit card was activated or deactivated
func (s *Sender) CardStatusChanged(ctx context.Context, user *models.User, card *models.DebitCard) error {
	return s.deliver(user, cardStatusEmail(s.cfg.SenderEmail, user, card))
}

func (s *Sender) deliver(user *models.User, e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to user %d: %v", user.ID, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to user %d: %s", user.ID, e.Subject)
	return nil
}

func cardIssuedEmail(from string, user *models.User, card *models.DebitCard) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{user.Email}
	e.Subject = "Your new debit card"

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", user.Username)
	fmt.Fprintf(&body, "A new %s debit card %s has been issued to you.\n", card.Type, utils.MaskCardNumber(card.Number))
	fmt.Fprintf(&body, "It is valid until %s.\n", card.ExpirationDate.Format("01/2006"))
	body.WriteString("\nBest regards,\nBank Service")
	e.Text = []byte(body.String())
	return e
}

func cardStatusEmail(from string, user *models.User, card *models.DebitCard) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{user.Email}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", user.Username)
	if card.IsActive() {
		e.Subject = "Debit card activated"
		fmt.Fprintf(&body, "Your debit card %s has been activated.\n", utils.MaskCardNumber(card.Number))
	} else {
		e.Subject = "Debit card deactivated"
		fmt.Fprintf(&body, "Your debit card %s was deactivated at %s UTC.\n",
			utils.MaskCardNumber(card.Number), card.DisabledAt.UTC().Format("2006-01-02 15:04:05"))
		body.WriteString("If you did not request this, please contact us immediately.\n")
	}
	body.WriteString("\nBest regards,\nBank Service")
	e.Text = []byte(body.String())
	return e
}
