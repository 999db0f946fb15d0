package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/debit-card-service/internal/config"
	"github.com/Dan9191/debit-card-service/internal/currency"
	"github.com/Dan9191/debit-card-service/internal/models"
	"github.com/Dan9191/debit-card-service/internal/notify"
	"github.com/Dan9191/debit-card-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt rejects longer input
	maxPasswordBytes = 72
)

// Notifier tells card owners about changes to their cards
type Notifier interface {
	CardIssued(ctx context.Context, user *models.User, card *models.DebitCard) error
	CardStatusChanged(ctx context.Context, user *models.User, card *models.DebitCard) error
}

// Service handles business logic
type Service struct {
	repo       repository.Store
	log        *logrus.Logger
	config     *config.Config
	currencies *currency.Registry
	notifier   Notifier
	now        func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithNotifier sets the notifier used for card events
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithCurrencies sets the accepted transaction currencies
func WithCurrencies(r *currency.Registry) Option {
	return func(s *Service) { s.currencies = r }
}

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService initializes a new service
func NewService(repo repository.Store, log *logrus.Logger, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		log:        log,
		config:     cfg,
		currencies: currency.Default(),
		notifier:   notify.Noop{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token is an issued bearer access token
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// Ping checks the store is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	verr := &ValidationError{}
	if username == "" {
		verr.Add("username", "The username field is required.")
	}
	if email == "" {
		verr.Add("email", "The email field is required.")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "The email must be a valid email address.")
	}
	if len(password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("The password must be at least %d characters.", minPasswordLength))
	} else if len(password) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("The password may not be greater than %d bytes.", maxPasswordBytes))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, NewValidationError("email", "The email has already been taken.")
		}
		return nil, err
	}

	s.log.Infof("User registered: %d", user.ID)
	return user, nil
}

// Login authenticates a user and returns a signed JWT
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %d", user.ID)
	return &Token{
		AccessToken: tokenString,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.TokenTTL / time.Second),
	}, nil
}

// timestamp is the service clock truncated to what responses can show
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// notifyOwner sends a card notice; failures are logged and never returned
func (s *Service) notifyOwner(ctx context.Context, card *models.DebitCard, send func(context.Context, *models.User, *models.DebitCard) error) {
	user, err := s.repo.FindUserByID(ctx, card.UserID)
	if err != nil {
		s.log.Warnf("Skipping notification for card %d: %v", card.ID, err)
		return
	}
	if err := send(ctx, user, card); err != nil {
		s.log.Warnf("Failed to notify user %d about card %d: %v", user.ID, card.ID, err)
	}
}
