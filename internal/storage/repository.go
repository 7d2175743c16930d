package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// dataSource enables foreign keys and a busy timeout on every pooled connection.
func dataSource(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataSource(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	now := r.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now

	err := r.queries.CreateCategory(ctx, Category{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	})
	if isUniqueViolation(err) {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, ErrConflict)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved", "id", c.ID, "user_id", c.UserID, "name", c.Name)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return categoryFromRow(row)
}

// EnsureCategory returns the user's category called name, creating it when
// missing.
func (r *SQLiteRepository) EnsureCategory(ctx context.Context, c core.Category) (core.Category, error) {
	row, err := r.queries.GetCategoryByName(ctx, c.UserID, c.Name)
	if err == nil {
		return categoryFromRow(row)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %q: %w", c.Name, err)
	}

	created, err := r.CreateCategory(ctx, c)
	if errors.Is(err, ErrConflict) {
		// Lost a race with another writer; theirs is as good as ours.
		row, err := r.queries.GetCategoryByName(ctx, c.UserID, c.Name)
		if err != nil {
			return core.Category{}, notFound(err, "category")
		}
		return categoryFromRow(row)
	}
	return created, err
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.CategoryWithCount, error) {
	rows, err := r.queries.ListCategoriesWithCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.CategoryWithCount, len(rows))
	for i, row := range rows {
		c, err := categoryFromRow(row.Category)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		out[i] = core.CategoryWithCount{Category: c, TransactionCount: row.TransactionCount}
	}
	return out, nil
}

func categoryFromRow(c Category) (core.Category, error) {
	var p timeParser
	out := core.Category{
		ID:          c.ID,
		UserID:      c.UserID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		CreatedAt:   p.parse(c.CreatedAt),
		UpdatedAt:   p.parse(c.UpdatedAt),
	}
	if p.err != nil {
		return core.Category{}, fmt.Errorf("category %s: %w", c.ID, p.err)
	}
	return out, nil
}

// Transactions

// TransactionFilter narrows ListTransactions. Empty fields match everything.
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID string
	Limit      int
	Offset     int
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = r.now().UTC()

	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          t.ID,
		UserID:      t.UserID,
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		Date:        formatTime(t.Date),
		Type:        string(t.Type),
		Status:      string(t.Status),
		CategoryID:  t.Category.ID,
		Merchant:    t.Merchant,
		Notes:       t.Notes,
		Source:      t.Source,
		CreatedAt:   formatTime(t.CreatedAt),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.Format("2006-01-02"))

	return r.GetTransaction(ctx, t.UserID, t.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return transactionFromRow(row)
}

// UpdateTransaction overwrites the editable fields of the user's transaction.
// Type, owner and creation time never change.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		UserID:      t.UserID,
		ID:          t.ID,
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		Date:        formatTime(t.Date),
		Status:      string(t.Status),
		CategoryID:  t.Category.ID,
		Merchant:    t.Merchant,
		Notes:       t.Notes,
		Source:      t.Source,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction updated", "id", t.ID, "user_id", t.UserID, "amount_cents", t.Amount.Cents)
	return r.GetTransaction(ctx, t.UserID, t.ID)
}

// TransactionTotals counts and sums the user's transactions of type typ, or
// of every type when typ is empty.
func (r *SQLiteRepository) TransactionTotals(ctx context.Context, userID string, typ core.TransactionType) (int64, core.Money, error) {
	count, cents, err := r.queries.GetTransactionTotals(ctx, userID, string(typ))
	if err != nil {
		return 0, core.Money{}, fmt.Errorf("get transaction totals: %w", err)
	}
	return count, core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{
		UserID:     userID,
		Type:       string(f.Type),
		CategoryID: f.CategoryID,
		Limit:      int64(f.Limit),
		Offset:     int64(f.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactionsFromRows(rows)
}

// ListExpenses returns every expense of the user, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return transactionsFromRows(rows)
}

// ListTransactionsBetween returns transactions dated in [from, to), oldest first.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsBetween(ctx, userID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// ListUserIDs returns every user that has at least one transaction.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	ids, err := r.queries.ListUsersWithTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// ReadMonthOverview aggregates income, expenses and per-category spending for a month.
func (r *SQLiteRepository) ReadMonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{Year: year, Month: month}
	start, end := core.MonthBounds(year, month)
	from, to := formatTime(start), formatTime(end)

	totals, err := r.queries.GetTypeTotals(ctx, userID, from, to)
	if err != nil {
		return overview, fmt.Errorf("get month totals: %w", err)
	}
	overview.Income = core.Money{Cents: totals.IncomeCents}
	overview.Expenses = core.Money{Cents: totals.ExpenseCents}

	sums, err := r.queries.GetCategorySums(ctx, userID, from, to)
	if err != nil {
		return overview, fmt.Errorf("get category sums: %w", err)
	}
	for _, cs := range sums {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   cs.CategoryName,
			Color:  cs.CategoryColor,
			Icon:   cs.CategoryIcon,
			Amount: core.Money{Cents: cs.TotalAmount},
		})
	}
	return overview, nil
}

func (r *SQLiteRepository) Counts(ctx context.Context, userID string) (core.Counts, error) {
	var c core.Counts
	var err error
	if c.Transactions, err = r.queries.CountTransactions(ctx, userID); err != nil {
		return c, fmt.Errorf("count transactions: %w", err)
	}
	if c.Categories, err = r.queries.CountCategories(ctx, userID); err != nil {
		return c, fmt.Errorf("count categories: %w", err)
	}
	if c.Budgets, err = r.queries.CountBudgets(ctx, userID); err != nil {
		return c, fmt.Errorf("count budgets: %w", err)
	}
	return c, nil
}

func transactionFromRow(row TransactionRow) (core.Transaction, error) {
	var p timeParser
	t := core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Date:        p.parse(row.Date),
		Type:        core.TransactionType(row.Type),
		Status:      core.TransactionStatus(row.Status),
		Category: core.Category{
			ID:     row.CategoryID,
			UserID: row.UserID,
			Name:   row.CategoryName,
			Color:  row.CategoryColor,
			Icon:   row.CategoryIcon,
		},
		Merchant:  row.Merchant,
		Notes:     row.Notes,
		Source:    row.Source,
		CreatedAt: p.parse(row.CreatedAt),
	}
	if p.err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, p.err)
	}
	return t, nil
}

func transactionsFromRows(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, len(rows))
	for i, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// Budgets

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now

	err := r.queries.CreateBudget(ctx, CreateBudgetParams{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		Period:      string(b.Period),
		StartDate:   formatTime(b.StartDate),
		EndDate:     formatTime(b.EndDate),
		CategoryID:  sql.NullString{String: b.CategoryID, Valid: b.CategoryID != ""},
		CreatedAt:   formatTime(now),
		UpdatedAt:   formatTime(now),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved", "id", b.ID, "user_id", b.UserID, "amount_cents", b.Amount.Cents)
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, period core.BudgetPeriod) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID, string(period))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgetsFromRows(rows)
}

// ListActiveBudgets returns budgets whose window contains at.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, userID string, at time.Time) ([]core.Budget, error) {
	rows, err := r.queries.ListActiveBudgets(ctx, userID, formatTime(at))
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	return budgetsFromRows(rows)
}

// SpentInBudget sums the expenses the budget covers.
func (r *SQLiteRepository) SpentInBudget(ctx context.Context, b core.Budget) (core.Money, error) {
	cents, err := r.queries.SumExpensesInWindow(ctx, b.UserID, formatTime(b.StartDate), formatTime(b.EndDate), b.CategoryID)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum budget spending: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func budgetsFromRows(rows []BudgetRow) ([]core.Budget, error) {
	out := make([]core.Budget, len(rows))
	for i, row := range rows {
		var p timeParser
		b := core.Budget{
			ID:         row.ID,
			UserID:     row.UserID,
			Name:       row.Name,
			Amount:     core.Money{Cents: row.AmountCents},
			Period:     core.BudgetPeriod(row.Period),
			StartDate:  p.parse(row.StartDate),
			EndDate:    p.parse(row.EndDate),
			CategoryID: row.CategoryID.String,
			CreatedAt:  p.parse(row.CreatedAt),
			UpdatedAt:  p.parse(row.UpdatedAt),
		}
		if p.err != nil {
			return nil, fmt.Errorf("budget %s: %w", row.ID, p.err)
		}
		if row.CategoryID.Valid {
			b.Category = &core.Category{
				ID:     row.CategoryID.String,
				UserID: row.UserID,
				Name:   row.CategoryName.String,
				Color:  row.CategoryColor.String,
				Icon:   row.CategoryIcon.String,
			}
		}
		out[i] = b
	}
	return out, nil
}

// Notifications

// CreateNotification stores n unless a notification with the same dedup key already
// exists for the user. It reports whether a row was written.
func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, bool, error) {
	n.ID = uuid.NewString()
	n.CreatedAt = r.now().UTC()

	meta := []byte("{}")
	if len(n.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(n.Metadata); err != nil {
			return core.Notification{}, false, fmt.Errorf("encode notification metadata: %w", err)
		}
	}

	affected, err := r.queries.InsertNotification(ctx, Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Metadata:  string(meta),
		DedupKey:  sql.NullString{String: n.DedupKey, Valid: n.DedupKey != ""},
		CreatedAt: formatTime(n.CreatedAt),
	})
	if err != nil {
		return core.Notification{}, false, fmt.Errorf("create notification: %w", err)
	}
	if affected == 0 {
		slog.DebugContext(ctx, "Notification already delivered", "user_id", n.UserID, "dedup_key", n.DedupKey)
		return core.Notification{}, false, nil
	}
	return n, true, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	rows, err := r.queries.ListNotifications(ctx, userID, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]core.Notification, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("notification %s: %w", row.ID, err)
		}
		n := core.Notification{
			ID:        row.ID,
			UserID:    row.UserID,
			Title:     row.Title,
			Message:   row.Message,
			Type:      core.NotificationType(row.Type),
			DedupKey:  row.DedupKey.String,
			IsRead:    row.IsRead != 0,
			CreatedAt: created,
		}
		if row.Metadata != "" && row.Metadata != "{}" {
			if err := json.Unmarshal([]byte(row.Metadata), &n.Metadata); err != nil {
				slog.WarnContext(ctx, "Discarding unreadable notification metadata", "id", row.ID, "error", err)
			}
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *SQLiteRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := r.queries.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	n, err := r.queries.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	n, err := r.queries.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteNotification(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteNotification(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetPreferences returns ErrNotFound when the user never saved preferences.
func (r *SQLiteRepository) GetPreferences(ctx context.Context, userID string) (core.NotificationPreferences, error) {
	p, err := r.queries.GetNotificationPreferences(ctx, userID)
	if err != nil {
		return core.NotificationPreferences{}, notFound(err, "notification preferences")
	}
	updated, err := parseTime(p.UpdatedAt)
	if err != nil {
		return core.NotificationPreferences{}, fmt.Errorf("notification preferences: %w", err)
	}
	return core.NotificationPreferences{
		UserID:             p.UserID,
		BudgetAlerts:       p.BudgetAlerts != 0,
		SpendingWarnings:   p.SpendingWarnings != 0,
		GoalNotifications:  p.GoalNotifications != 0,
		PaymentReminders:   p.PaymentReminders != 0,
		EmailNotifications: p.EmailNotifications != 0,
		PushNotifications:  p.PushNotifications != 0,
		UpdatedAt:          updated,
	}, nil
}

func (r *SQLiteRepository) SavePreferences(ctx context.Context, p core.NotificationPreferences) (core.NotificationPreferences, error) {
	p.UpdatedAt = r.now().UTC()
	err := r.queries.UpsertNotificationPreferences(ctx, NotificationPreference{
		UserID:             p.UserID,
		BudgetAlerts:       boolToInt(p.BudgetAlerts),
		SpendingWarnings:   boolToInt(p.SpendingWarnings),
		GoalNotifications:  boolToInt(p.GoalNotifications),
		PaymentReminders:   boolToInt(p.PaymentReminders),
		EmailNotifications: boolToInt(p.EmailNotifications),
		PushNotifications:  boolToInt(p.PushNotifications),
		UpdatedAt:          formatTime(p.UpdatedAt),
	})
	if err != nil {
		return core.NotificationPreferences{}, fmt.Errorf("save notification preferences: %w", err)
	}
	return p, nil
}
