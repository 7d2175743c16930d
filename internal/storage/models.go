package storage

import "database/sql"

type Category struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Color       string
	Icon        string
	CreatedAt   string
	UpdatedAt   string
}

type CategoryWithCountRow struct {
	Category
	TransactionCount int64
}

// TransactionRow is a transaction joined with its category.
type TransactionRow struct {
	ID            string
	UserID        string
	AmountCents   int64
	Description   string
	Date          string
	Type          string
	Status        string
	CategoryID    string
	Merchant      string
	Notes         string
	Source        string
	CreatedAt     string
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
}

// BudgetRow is a budget left-joined with its optional category.
type BudgetRow struct {
	ID            string
	UserID        string
	Name          string
	AmountCents   int64
	Period        string
	StartDate     string
	EndDate       string
	CategoryID    sql.NullString
	CreatedAt     string
	UpdatedAt     string
	CategoryName  sql.NullString
	CategoryColor sql.NullString
	CategoryIcon  sql.NullString
}

type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      string
	Metadata  string
	DedupKey  sql.NullString
	IsRead    int64
	CreatedAt string
}

type NotificationPreference struct {
	UserID             string
	BudgetAlerts       int64
	SpendingWarnings   int64
	GoalNotifications  int64
	PaymentReminders   int64
	EmailNotifications int64
	PushNotifications  int64
	UpdatedAt          string
}

type CategorySumRow struct {
	CategoryName  string
	CategoryColor string
	CategoryIcon  string
	TotalAmount   int64
}

type TypeTotalsRow struct {
	IncomeCents  int64
	ExpenseCents int64
}
