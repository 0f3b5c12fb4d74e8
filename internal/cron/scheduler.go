package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"reepaygw/internal/config"
	"reepaygw/internal/models"
	"reepaygw/internal/notify"
	"reepaygw/internal/payment"
	"reepaygw/internal/repository"
)

// pollTimeout bounds one polling run so a hung gateway cannot stack runs.
const pollTimeout = 2 * time.Minute

// StatusFetcher reads the current payment status of a charge.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, handle string) (*payment.OperationResult, error)
}

// Scheduler manages the cron jobs. Its only job reconciles payments whose
// webhook never arrived by asking the gateway for the charge state.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.PollConfig
	logger   *zap.Logger
	sessions *repository.PaymentSessionRepository
	fetcher  StatusFetcher
	notifier notify.Notifier
	now      func() time.Time

	mu      sync.Mutex
	running bool
}

// New creates a new cron scheduler.
func New(cfg config.PollConfig, sessions *repository.PaymentSessionRepository, fetcher StatusFetcher, notifier notify.Notifier, logger *zap.Logger) *Scheduler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		fetcher:  fetcher,
		notifier: notifier,
		now:      time.Now,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting cron scheduler...")

	if _, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.logger.Debug("Running: payment status poll")
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()
		s.Poll(ctx)
	}); err != nil {
		return fmt.Errorf("schedule payment poll %q: %w", s.cfg.Spec, err)
	}

	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.String("poll_spec", s.cfg.Spec))
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Poll refreshes unresolved sessions that have been quiet for at least
// MinAge and are younger than MaxAge. It returns the number of sessions
// whose status changed. Overlapping runs are skipped.
func (s *Scheduler) Poll(ctx context.Context) int {
	defer s.recoverFromPanic("paymentPoll")

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug("Payment poll still running, skipping")
		return 0
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	now := s.now()
	pending, err := s.sessions.FindUnresolved(now.Add(-s.cfg.MinAge), now.Add(-s.cfg.MaxAge), s.cfg.Batch)
	if err != nil {
		s.logger.Error("Failed to load unresolved payments", zap.Error(err))
		return 0
	}

	changed := 0
	polled := make([]uint, 0, len(pending))
	for i := range pending {
		if ctx.Err() != nil {
			s.logger.Warn("Payment poll interrupted", zap.Int("remaining", len(pending)-i), zap.Error(ctx.Err()))
			break
		}
		if s.refresh(ctx, &pending[i]) {
			changed++
		}
		polled = append(polled, pending[i].ID)
	}
	if err := s.sessions.MarkPolled(polled, now); err != nil {
		s.logger.Error("Failed to record polled payments", zap.Int("count", len(polled)), zap.Error(err))
	}

	if len(pending) > 0 {
		s.logger.Info("Payment poll finished", zap.Int("checked", len(pending)), zap.Int("changed", changed))
	}
	return changed
}

func (s *Scheduler) refresh(ctx context.Context, session *models.PaymentSession) bool {
	op, err := s.fetcher.FetchStatus(ctx, session.ChargeHandle)
	if err != nil {
		s.logger.Debug("Payment status request failed",
			zap.String("order_id", session.OrderID),
			zap.Error(err),
		)
		return false
	}

	tr, err := s.sessions.ApplyStatus(session.OrderID, op.Status, op.TransactionID, "", models.SourcePoll)
	if err != nil {
		s.logger.Error("Failed to apply polled status", zap.String("order_id", session.OrderID), zap.Error(err))
		return false
	}
	if !tr.Changed() {
		return false
	}

	s.logger.Info("Payment status reconciled",
		zap.String("order_id", session.OrderID),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
	)
	s.notifier.PaymentChanged(ctx, tr.Session, tr.From, tr.To)
	return true
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
