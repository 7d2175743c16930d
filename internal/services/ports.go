package services

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ErrUnknownCategory is returned when a transaction or budget names a category
// the user does not own.
var ErrUnknownCategory = errors.New("unknown category")

// The store interfaces below are the slices of *storage.SQLiteRepository each
// service depends on.

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.CategoryWithCount, error)
}

type TransactionStore interface {
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	EnsureCategory(ctx context.Context, c core.Category) (core.Category, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	TransactionTotals(ctx context.Context, userID string, typ core.TransactionType) (int64, core.Money, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

type BudgetStore interface {
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string, period core.BudgetPeriod) ([]core.Budget, error)
	ListActiveBudgets(ctx context.Context, userID string, at time.Time) ([]core.Budget, error)
	SpentInBudget(ctx context.Context, b core.Budget) (core.Money, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n core.Notification) (core.Notification, bool, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	GetPreferences(ctx context.Context, userID string) (core.NotificationPreferences, error)
	SavePreferences(ctx context.Context, p core.NotificationPreferences) (core.NotificationPreferences, error)
}

// ExpenseSource supplies the history the recurring bill engine reads.
type ExpenseSource interface {
	ListExpenses(ctx context.Context, userID string) ([]core.Transaction, error)
}

type ReportStore interface {
	ReadMonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error)
	Counts(ctx context.Context, userID string) (core.Counts, error)
	ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error)
	ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error)
}

type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// EventPublisher hands transaction events to the broker.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// EventSink processes a transaction event in-process.
type EventSink interface {
	HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// Invalidator drops cached reads for a user after a write.
type Invalidator interface {
	InvalidateUser(userID string)
}

var (
	_ CategoryStore     = (*storage.SQLiteRepository)(nil)
	_ TransactionStore  = (*storage.SQLiteRepository)(nil)
	_ BudgetStore       = (*storage.SQLiteRepository)(nil)
	_ NotificationStore = (*storage.SQLiteRepository)(nil)
	_ ExpenseSource     = (*storage.SQLiteRepository)(nil)
	_ ReportStore       = (*storage.SQLiteRepository)(nil)
	_ UserLister        = (*storage.SQLiteRepository)(nil)
	_ EventPublisher    = (*amqp.Client)(nil)
)
