package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
)

// EventThresholds configures when transaction events raise notifications.
type EventThresholds struct {
	LargeExpense       core.Money
	BudgetAlertPercent float64
}

// EventHandler reacts to stored transactions: spending warnings, budget
// alerts, income notices, and refreshing the exported bill list.
type EventHandler struct {
	transactions  TransactionStore
	budgets       BudgetStore
	notifications *NotificationService
	bills         *RecurringBillService
	exporter      sheets.BillExporter
	thresholds    EventThresholds
	now           func() time.Time
}

func NewEventHandler(
	transactions TransactionStore,
	budgets BudgetStore,
	notifications *NotificationService,
	bills *RecurringBillService,
	exporter sheets.BillExporter,
	thresholds EventThresholds,
) *EventHandler {
	return &EventHandler{
		transactions:  transactions,
		budgets:       budgets,
		notifications: notifications,
		bills:         bills,
		exporter:      exporter,
		thresholds:    thresholds,
		now:           time.Now,
	}
}

var _ EventSink = (*EventHandler)(nil)

// HandleTransactionEvent processes one transaction.created event. A transaction
// deleted before the event arrives is skipped without error. Notifications
// carry dedup keys, so redelivered events do not notify twice.
func (h *EventHandler) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	if evt.Event != amqp.EventTransactionCreated {
		slog.DebugContext(ctx, "Ignoring unsupported event", "event", evt.Event)
		return nil
	}

	t, err := h.transactions.GetTransaction(ctx, evt.UserID, evt.TransactionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.InfoContext(ctx, "Transaction no longer exists, skipping event",
				"transaction_id", evt.TransactionID, "user_id", evt.UserID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	prefs, err := h.notifications.Preferences(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	switch t.Type {
	case core.Income:
		if _, err := h.notifications.Notify(ctx, IncomeAdded(t)); err != nil {
			return err
		}
	case core.Expense:
		if prefs.SpendingWarnings && t.Amount.Cents >= h.thresholds.LargeExpense.Cents {
			if _, err := h.notifications.Notify(ctx, SpendingWarning(t)); err != nil {
				return err
			}
		}
		if prefs.BudgetAlerts {
			if err := h.checkBudgets(ctx, t); err != nil {
				return err
			}
		}
		h.refreshExport(ctx, t.UserID)
	}
	return nil
}

// checkBudgets raises at most one alert and one exceeded notice per budget;
// both levels can fire for the same transaction.
func (h *EventHandler) checkBudgets(ctx context.Context, t core.Transaction) error {
	active, err := h.budgets.ListActiveBudgets(ctx, t.UserID, t.Date)
	if err != nil {
		return fmt.Errorf("list active budgets: %w", err)
	}
	threshold := decimal.NewFromFloat(h.thresholds.BudgetAlertPercent)

	for _, b := range active {
		if !b.Covers(t) {
			continue
		}
		spent, err := h.budgets.SpentInBudget(ctx, b)
		if err != nil {
			return fmt.Errorf("budget %s: %w", b.ID, err)
		}
		if b.Amount.Cents <= 0 {
			continue
		}
		pct := spent.Decimal().Div(b.Amount.Decimal()).Mul(hundred)

		if pct.GreaterThanOrEqual(threshold) {
			if _, err := h.notifications.Notify(ctx, BudgetAlert(b, spent)); err != nil {
				return err
			}
		}
		if spent.Cents > b.Amount.Cents {
			if _, err := h.notifications.Notify(ctx, BudgetExceeded(b, spent)); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshExport is best effort; export failures are logged only.
func (h *EventHandler) refreshExport(ctx context.Context, userID string) {
	if h.exporter == nil || h.bills == nil {
		return
	}
	now := h.now()
	bills, err := h.bills.BillsAt(ctx, userID, now, BillQuery{})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to detect bills for export", "user_id", userID, "error", err)
		return
	}
	if err := h.exporter.ExportBills(ctx, userID, bills, now); err != nil {
		slog.WarnContext(ctx, "Failed to export recurring bills", "user_id", userID, "error", err)
	}
}
