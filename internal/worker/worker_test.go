package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
)

type fakeSink struct {
	err      error
	calls    int
	deadline bool
}

func (f *fakeSink) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.err
}

type fakeConsumer struct {
	events []*amqp.TransactionEvent
	errs   []error
}

func (c *fakeConsumer) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error {
	for _, e := range c.events {
		c.errs = append(c.errs, handler(ctx, e))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEventWorker_HandleEvent(t *testing.T) {
	sink := &fakeSink{}
	w := NewEventWorker(sink, 0)

	evt := amqp.NewTransactionCreatedEvent("tx1", "u1", "EXPENSE")
	if err := w.HandleEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if sink.calls != 1 || !sink.deadline {
		t.Errorf("calls=%d deadline=%v", sink.calls, sink.deadline)
	}

	sink.err = errors.New("database locked")
	err := w.HandleEvent(context.Background(), evt)
	if err == nil || !errors.Is(err, sink.err) {
		t.Errorf("expected wrapped handler error, got %v", err)
	}
}

func TestEventWorker_RunStopsCleanly(t *testing.T) {
	sink := &fakeSink{}
	w := NewEventWorker(sink, time.Second)
	consumer := &fakeConsumer{events: []*amqp.TransactionEvent{
		amqp.NewTransactionCreatedEvent("tx1", "u1", "EXPENSE"),
		amqp.NewTransactionCreatedEvent("tx2", "u1", "INCOME"),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if sink.calls != 2 {
		t.Errorf("handled %d events, want 2", sink.calls)
	}
}

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (r *countingRunner) ProcessReminders(ctx context.Context, now time.Time) (services.ReminderStats, error) {
	r.runs.Add(1)
	return services.ReminderStats{Users: 1}, r.err
}

func TestReminderScheduler_Lifecycle(t *testing.T) {
	runner := &countingRunner{}
	s := NewReminderScheduler(runner, 10*time.Millisecond)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	if !s.IsRunning() {
		t.Error("expected running")
	}

	time.Sleep(35 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("expected stopped")
	}
	if n := runner.runs.Load(); n < 2 {
		t.Errorf("runs = %d, want the startup sweep plus at least one tick", n)
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop on a stopped scheduler: %v", err)
	}
}

func TestReminderScheduler_SweepErrorsDoNotStopLoop(t *testing.T) {
	runner := &countingRunner{err: errors.New("list users: disk I/O error")}
	s := NewReminderScheduler(runner, 5*time.Millisecond)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	s.Stop(context.Background())
	if runner.runs.Load() < 2 {
		t.Errorf("loop stopped after a failed sweep: runs=%d", runner.runs.Load())
	}
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRunner) ProcessReminders(ctx context.Context, now time.Time) (services.ReminderStats, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	return services.ReminderStats{}, nil
}

func TestReminderScheduler_StopAfterTimeout(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := NewReminderScheduler(runner, time.Hour)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-runner.started

	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Stop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop with a blocked sweep = %v, want deadline exceeded", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler reported stopped while the sweep is still running")
	}

	// Concurrent retries must not close the stop channel twice.
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			errs <- s.Stop(ctx)
		}()
	}
	close(runner.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("retried Stop: %v", err)
		}
	}
	if s.IsRunning() {
		t.Error("expected stopped")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop after restart: %v", err)
	}
}
