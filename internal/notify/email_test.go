package notify

import (
	"context"
	"errors"
	"io"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

func testSender(send func(*email.Email, string, smtp.Auth) error) *Sender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{SMTPHost: "smtp.local", SMTPPort: "2525", SenderEmail: "cards@bank.local"}
	s := NewSender(cfg, logger)
	s.send = send
	return s
}

func testCard() *models.DebitCard {
	return &models.DebitCard{
		ID:             3,
		UserID:         1,
		Number:         "4111111111111111",
		Type:           "VISA",
		ExpirationDate: time.Date(2029, time.January, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestCardIssuedMasksNumber(t *testing.T) {
	var sent *email.Email
	var sentAddr string
	s := testSender(func(e *email.Email, addr string, auth smtp.Auth) error {
		sent, sentAddr = e, addr
		return nil
	})
	user := &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}

	if err := s.CardIssued(context.Background(), user, testCard()); err != nil {
		t.Fatalf("CardIssued returned error: %v", err)
	}
	if sentAddr != "smtp.local:2525" {
		t.Fatalf("unexpected smtp address %q", sentAddr)
	}
	if sent.From != "cards@bank.local" || sent.To[0] != "alice@example.com" {
		t.Fatalf("unexpected envelope %q -> %v", sent.From, sent.To)
	}
	body := string(sent.Text)
	if strings.Contains(body, "4111111111111111") {
		t.Fatal("email body must not contain the full card number")
	}
	if !strings.Contains(body, "************1111") || !strings.Contains(body, "01/2029") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func TestCardStatusChangedSubject(t *testing.T) {
	var subjects []string
	s := testSender(func(e *email.Email, addr string, auth smtp.Auth) error {
		subjects = append(subjects, e.Subject)
		return nil
	})
	user := &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	card := testCard()

	if err := s.CardStatusChanged(context.Background(), user, card); err != nil {
		t.Fatalf("CardStatusChanged returned error: %v", err)
	}
	disabledAt := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	card.DisabledAt = &disabledAt
	if err := s.CardStatusChanged(context.Background(), user, card); err != nil {
		t.Fatalf("CardStatusChanged returned error: %v", err)
	}

	want := []string{"Debit card activated", "Debit card deactivated"}
	if len(subjects) != 2 || subjects[0] != want[0] || subjects[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, subjects)
	}
}

func TestSendFailureIsReturned(t *testing.T) {
	s := testSender(func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	})
	user := &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}

	if err := s.CardIssued(context.Background(), user, testCard()); err == nil {
		t.Fatal("expected send error")
	}
}
