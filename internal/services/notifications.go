package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type NotificationService struct {
	store   NotificationStore
	metrics *metrics.Metrics
}

func NewNotificationService(store NotificationStore, m *metrics.Metrics) *NotificationService {
	return &NotificationService{store: store, metrics: m}
}

// PreferencesPatch carries a partial preferences update; nil fields are unchanged.
type PreferencesPatch struct {
	BudgetAlerts       *bool
	SpendingWarnings   *bool
	GoalNotifications  *bool
	PaymentReminders   *bool
	EmailNotifications *bool
	PushNotifications  *bool
}

// Preferences returns the user's preferences, saving the defaults on first read.
func (s *NotificationService) Preferences(ctx context.Context, userID string) (core.NotificationPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return core.NotificationPreferences{}, core.ErrMissingUser
	}
	p, err := s.store.GetPreferences(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.NotificationPreferences{}, err
	}
	return s.store.SavePreferences(ctx, core.DefaultPreferences(userID))
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, patch PreferencesPatch) (core.NotificationPreferences, error) {
	p, err := s.Preferences(ctx, userID)
	if err != nil {
		return core.NotificationPreferences{}, err
	}
	apply := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&p.BudgetAlerts, patch.BudgetAlerts)
	apply(&p.SpendingWarnings, patch.SpendingWarnings)
	apply(&p.GoalNotifications, patch.GoalNotifications)
	apply(&p.PaymentReminders, patch.PaymentReminders)
	apply(&p.EmailNotifications, patch.EmailNotifications)
	apply(&p.PushNotifications, patch.PushNotifications)
	return s.store.SavePreferences(ctx, p)
}

// Notify stores n unless its dedup key was already used for the user. The
// boolean reports whether anything was written.
func (s *NotificationService) Notify(ctx context.Context, n core.Notification) (bool, error) {
	created, ok, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		return false, err
	}
	s.metrics.IncNotification(string(n.Type), ok)
	if ok {
		slog.InfoContext(ctx, "Notification created",
			"user_id", n.UserID,
			"id", created.ID,
			"notification_type", n.Type,
			"dedup_key", n.DedupKey)
	}
	return ok, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrMissingUser
	}
	return s.store.ListNotifications(ctx, userID, ClampLimit(limit))
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteNotification(ctx, userID, id)
}

// Notification builders. Dollar amounts are rendered with two decimals.

func BudgetAlert(b core.Budget, spent core.Money) core.Notification {
	pct := 0
	if b.Amount.Cents > 0 {
		pct = int(spent.Decimal().Div(b.Amount.Decimal()).Mul(hundred).Round(0).IntPart())
	}
	return core.Notification{
		UserID:  b.UserID,
		Type:    core.NotificationBudgetAlert,
		Title:   "Budget Alert: " + b.Name,
		Message: fmt.Sprintf("You've spent %d%% of your %s budget ($%s of $%s)", pct, b.Name, spent, b.Amount),
		Metadata: map[string]any{
			"budgetId":   b.ID,
			"budgetName": b.Name,
			"spent":      spent.Float(),
			"budget":     b.Amount.Float(),
			"percentage": pct,
		},
		DedupKey: "budget:" + b.ID + ":alert",
	}
}

func BudgetExceeded(b core.Budget, spent core.Money) core.Notification {
	over := spent.Sub(b.Amount)
	return core.Notification{
		UserID:  b.UserID,
		Type:    core.NotificationBudgetExceeded,
		Title:   "Budget Exceeded: " + b.Name,
		Message: fmt.Sprintf("You've exceeded your %s budget by $%s ($%s of $%s)", b.Name, over, spent, b.Amount),
		Metadata: map[string]any{
			"budgetId":   b.ID,
			"budgetName": b.Name,
			"spent":      spent.Float(),
			"budget":     b.Amount.Float(),
			"overspent":  over.Float(),
		},
		DedupKey: "budget:" + b.ID + ":exceeded",
	}
}

func SpendingWarning(t core.Transaction) core.Notification {
	return core.Notification{
		UserID:  t.UserID,
		Type:    core.NotificationSpendingWarning,
		Title:   "Large Expense Detected",
		Message: fmt.Sprintf("Unusual spending: $%s on %s", t.Amount, t.Description),
		Metadata: map[string]any{
			"transactionId": t.ID,
			"amount":        t.Amount.Float(),
			"description":   t.Description,
		},
		DedupKey: "spending:" + t.ID,
	}
}

// IncomeAdded names the recorded source, falling back to the merchant and
// then the description.
func IncomeAdded(t core.Transaction) core.Notification {
	source := t.Source
	if source == "" {
		source = t.Merchant
	}
	if source == "" {
		source = t.Description
	}
	if source == "" {
		source = "Unknown"
	}
	return core.Notification{
		UserID:  t.UserID,
		Type:    core.NotificationIncomeAdded,
		Title:   "Income Added",
		Message: fmt.Sprintf("New income of $%s from %s has been recorded", t.Amount, source),
		Metadata: map[string]any{
			"transactionId": t.ID,
			"amount":        t.Amount.Float(),
			"source":        source,
		},
		DedupKey: "income:" + t.ID,
	}
}

// PaymentReminder is keyed by bill and due date so each due date reminds once.
func PaymentReminder(userID string, b recurring.Bill) core.Notification {
	due := b.NextDueDate.Format("2006-01-02")
	return core.Notification{
		UserID:  userID,
		Type:    core.NotificationPaymentReminder,
		Title:   "Payment Reminder",
		Message: fmt.Sprintf("%s payment of $%s is due on %s", b.Name, b.Amount, due),
		Metadata: map[string]any{
			"billId":      b.ID,
			"description": b.Name,
			"amount":      b.Amount.Float(),
			"dueDate":     due,
			"status":      b.Status.String(),
		},
		DedupKey: "reminder:" + b.ID + ":" + due,
	}
}

func MonthlySummary(userID string, month time.Time, spent, budgetTotal core.Money, topCategory string) core.Notification {
	key := month.Format("2006-01")
	return core.Notification{
		UserID:  userID,
		Type:    core.NotificationMonthlySummary,
		Title:   "Monthly Summary",
		Message: fmt.Sprintf("Last month you spent $%s of your $%s budget. Top category: %s", spent, budgetTotal, topCategory),
		Metadata: map[string]any{
			"month":       key,
			"totalSpent":  spent.Float(),
			"budgetTotal": budgetTotal.Float(),
			"topCategory": topCategory,
		},
		DedupKey: "summary:" + key,
	}
}
