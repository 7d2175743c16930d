package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// TransactionService stores transactions and announces them. Events go to the
// broker when one is configured; otherwise, or when publishing fails, the inline
// sink handles them before Create returns.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	inline    EventSink
	cache     Invalidator
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewTransactionService(store TransactionStore, publisher EventPublisher, inline EventSink, cache Invalidator, m *metrics.Metrics) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		inline:    inline,
		cache:     cache,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	t.Merchant = strings.TrimSpace(t.Merchant)
	if t.Type == "" {
		t.Type = core.Expense
	}
	if t.Status == "" {
		t.Status = core.StatusApproved
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.checkCategory(ctx, t.UserID, t.Category.ID); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.metrics.IncTransactionCreated(string(saved.Type))
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionCreated(ctx, saved.ID, saved.UserID, string(saved.Type), saved.Amount.Cents)

	if s.cache != nil {
		s.cache.InvalidateUser(saved.UserID)
	}
	s.announce(ctx, saved)
	return saved, nil
}

func (s *TransactionService) checkCategory(ctx context.Context, userID, id string) error {
	if _, err := s.store.GetCategory(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("category %s: %w", id, ErrUnknownCategory)
		}
		return err
	}
	return nil
}

// announce never fails the request: the transaction is already stored.
func (s *TransactionService) announce(ctx context.Context, t core.Transaction) {
	evt := amqp.NewTransactionCreatedEvent(t.ID, t.UserID, string(t.Type))

	if s.publisher != nil {
		err := s.publisher.PublishTransactionEvent(ctx, evt)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Failed to publish transaction event, handling inline",
			"transaction_id", t.ID, "error", err)
	}

	if s.inline == nil {
		slog.WarnContext(ctx, "No event handler configured, skipping transaction event", "transaction_id", t.ID)
		return
	}
	if err := s.inline.HandleTransactionEvent(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Inline transaction event handling failed",
			"transaction_id", t.ID, "error", err)
	}
}

// ClampLimit applies the default list size and caps it.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// List returns the user's transactions newest first.
func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrMissingUser
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.ErrInvalidType
	}
	f.Limit = ClampLimit(f.Limit)
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// TransactionPatch lists the fields Update may change. Nil fields keep their
// stored value.
type TransactionPatch struct {
	Amount      *core.Money
	Description *string
	Date        *time.Time
	Status      *core.TransactionStatus
	CategoryID  *string
	Merchant    *string
	Notes       *string
	Source      *string
}

func (p TransactionPatch) apply(t core.Transaction) core.Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CategoryID != nil {
		t.Category = core.Category{ID: *p.CategoryID}
	}
	if p.Merchant != nil {
		t.Merchant = strings.TrimSpace(*p.Merchant)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Source != nil {
		t.Source = strings.TrimSpace(*p.Source)
	}
	return t
}

// Update changes the user's transaction. The type is fixed at creation.
func (s *TransactionService) Update(ctx context.Context, userID, id string, p TransactionPatch) (core.Transaction, error) {
	current, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.update(ctx, current, p)
}

func (s *TransactionService) update(ctx context.Context, current core.Transaction, p TransactionPatch) (core.Transaction, error) {
	next := p.apply(current)
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if next.Category.ID != current.Category.ID {
		if err := s.checkCategory(ctx, next.UserID, next.Category.ID); err != nil {
			return core.Transaction{}, err
		}
	}

	saved, err := s.store.UpdateTransaction(ctx, next)
	if err != nil {
		return core.Transaction{}, err
	}
	if s.cache != nil {
		s.cache.InvalidateUser(saved.UserID)
	}
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
	return nil
}
