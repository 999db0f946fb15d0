package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const sweepTimeout = time.Minute

// ExpiredCardDisabler disables active cards past their expiration date
type ExpiredCardDisabler interface {
	DisableExpiredDebitCards(ctx context.Context) (int64, error)
}

// ExpirySweeper periodically disables expired debit cards
type ExpirySweeper struct {
	cards  ExpiredCardDisabler
	logger *logrus.Logger
	cron   *cron.Cron
}

// NewExpirySweeper creates a sweeper; nothing runs until Start
func NewExpirySweeper(cards ExpiredCardDisabler, logger *logrus.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		cards:  cards,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the sweep with a standard cron spec or descriptor such as @daily
func (s *ExpirySweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid expiry sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Infof("Expiry sweeper scheduled: %s", schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end
func (s *ExpirySweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep runs one pass and returns how many cards were disabled
func (s *ExpirySweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.cards.DisableExpiredDebitCards(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to disable expired cards: %w", err)
	}
	return n, nil
}

func (s *ExpirySweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Errorf("Expiry sweep failed: %v", err)
		return
	}
	s.logger.WithField("disabled", n).Info("Expiry sweep finished")
}
