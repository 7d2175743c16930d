package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
)

// EventConsumer delivers transaction events until its context ends.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
}

var _ EventConsumer = (*amqp.Client)(nil)

// EventWorker feeds broker deliveries to the transaction event handler.
type EventWorker struct {
	handler services.EventSink
	timeout time.Duration
}

// NewEventWorker bounds each event by timeout; zero means 30 seconds.
func NewEventWorker(handler services.EventSink, timeout time.Duration) *EventWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EventWorker{handler: handler, timeout: timeout}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *EventWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"event", evt.Event,
		"transaction_id", evt.TransactionID,
		"user_id", evt.UserID,
		"version", evt.Version)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	if err := w.handler.HandleTransactionEvent(ctx, evt); err != nil {
		return fmt.Errorf("handle %s %s: %w", evt.Event, evt.TransactionID, err)
	}

	slog.InfoContext(ctx, "Transaction event processed",
		"transaction_id", evt.TransactionID,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Run consumes until ctx is cancelled. Cancellation is a clean stop.
func (w *EventWorker) Run(ctx context.Context, consumer EventConsumer) error {
	err := consumer.ConsumeTransactionEvents(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
