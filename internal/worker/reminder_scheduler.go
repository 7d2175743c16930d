package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/services"
)

// ReminderRunner performs one reminder sweep.
type ReminderRunner interface {
	ProcessReminders(ctx context.Context, now time.Time) (services.ReminderStats, error)
}

var _ ReminderRunner = (*services.ReminderProcessor)(nil)

// ReminderScheduler runs reminder sweeps on an interval, starting immediately.
type ReminderScheduler struct {
	runner   ReminderRunner
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderScheduler(runner ReminderRunner, interval time.Duration) *ReminderScheduler {
	return &ReminderScheduler{runner: runner, interval: interval, now: time.Now}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("reminder scheduler is already running")
	}
	s.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	s.stopCh, s.doneCh = stopCh, doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Reminder scheduler started", "interval", s.interval)
	return nil
}

// Stop signals the loop and waits for the current sweep to finish. It is safe
// to call again after a timed-out Stop and from several goroutines.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reminder scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	if s.doneCh == doneCh {
		s.running = false
		s.doneCh = nil
	}
	s.mu.Unlock()
	return nil
}

func (s *ReminderScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ReminderScheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweep(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ReminderScheduler) sweep(ctx context.Context) {
	now := s.now()
	stats, err := s.runner.ProcessReminders(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Reminder sweep failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Reminder sweep complete",
		"users", stats.Users,
		"reminders", stats.Reminders,
		"failures", stats.Failures,
		"next_check", now.Add(s.interval).Format("15:04:05"))
}
