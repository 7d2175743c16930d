package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"

	Weekly    BudgetPeriod = "WEEKLY"
	Monthly   BudgetPeriod = "MONTHLY"
	Quarterly BudgetPeriod = "QUARTERLY"
	Yearly    BudgetPeriod = "YEARLY"
)

const (
	NotificationBudgetAlert     NotificationType = "BUDGET_ALERT"
	NotificationBudgetExceeded  NotificationType = "BUDGET_EXCEEDED"
	NotificationSpendingWarning NotificationType = "SPENDING_WARNING"
	NotificationIncomeAdded     NotificationType = "INCOME_ADDED"
	NotificationPaymentReminder NotificationType = "PAYMENT_REMINDER"
	NotificationMonthlySummary  NotificationType = "MONTHLY_SUMMARY"
)

type (
	TransactionType   string
	TransactionStatus string
	BudgetPeriod      string
	NotificationType  string

	Category struct {
		ID          string
		UserID      string
		Name        string
		Description string
		Color       string // optional, "#RRGGBB"
		Icon        string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	CategoryWithCount struct {
		Category
		TransactionCount int64
	}

	Transaction struct {
		ID          string
		UserID      string
		Amount      Money
		Description string
		Date        time.Time
		Type        TransactionType
		Status      TransactionStatus
		Category    Category
		Merchant    string // optional
		Notes       string // optional
		Source      string // where income came from; optional
		CreatedAt   time.Time
	}

	Budget struct {
		ID         string
		UserID     string
		Name       string
		Amount     Money
		Period     BudgetPeriod
		StartDate  time.Time
		EndDate    time.Time
		CategoryID string    // empty means the budget covers every category
		Category   *Category // resolved on read
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	Notification struct {
		ID        string
		UserID    string
		Title     string
		Message   string
		Type      NotificationType
		Metadata  map[string]any
		DedupKey  string
		IsRead    bool
		CreatedAt time.Time
	}

	NotificationPreferences struct {
		UserID             string
		BudgetAlerts       bool
		SpendingWarnings   bool
		GoalNotifications  bool
		PaymentReminders   bool
		EmailNotifications bool
		PushNotifications  bool
		UpdatedAt          time.Time
	}
)

var (
	ErrMissingUser      = errors.New("missing user id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidStatus    = errors.New("invalid transaction status")
	ErrInvalidPeriod    = errors.New("invalid budget period")
	ErrInvalidColor     = errors.New("invalid color")
	ErrTooLong          = errors.New("value too long")
)

// NewDate returns midnight UTC of the given calendar day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (p BudgetPeriod) Valid() bool {
	switch p {
	case Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description (max 200 characters)", ErrTooLong)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if strings.TrimSpace(t.Category.ID) == "" {
		return ErrEmptyCategory
	}
	if len(t.Notes) > 1000 {
		return fmt.Errorf("%w: notes (max 1000 characters)", ErrTooLong)
	}
	if len(t.Source) > 100 {
		return fmt.Errorf("%w: source (max 100 characters)", ErrTooLong)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("%w: name (max 100 characters)", ErrTooLong)
	}
	if c.Color != "" && !validHexColor(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if b.EndDate.Before(b.StartDate) {
		return errors.New("end date must not precede start date")
	}
	return nil
}

// Covers reports whether t falls inside the budget window and category.
func (b Budget) Covers(t Transaction) bool {
	if t.Type != Expense {
		return false
	}
	if t.Date.Before(b.StartDate) || t.Date.After(b.EndDate) {
		return false
	}
	return b.CategoryID == "" || b.CategoryID == t.Category.ID
}

// DefaultPreferences mirrors the defaults applied when a user has never saved any.
func DefaultPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:             userID,
		BudgetAlerts:       true,
		SpendingWarnings:   true,
		GoalNotifications:  true,
		PaymentReminders:   true,
		EmailNotifications: false,
		PushNotifications:  true,
	}
}

func validHexColor(s string) bool {
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
