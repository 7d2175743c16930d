package storage

import (
	"context"
	"database/sql"
)

// Categories

const createCategory = `
INSERT INTO categories (id, user_id, name, description, color, icon, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, arg Category) error {
	_, err := q.db.ExecContext(ctx, createCategory,
		arg.ID, arg.UserID, arg.Name, arg.Description, arg.Color, arg.Icon, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const getCategory = `
SELECT id, user_id, name, description, color, icon, created_at, updated_at
FROM categories
WHERE user_id = ? AND id = ?`

func (q *Queries) GetCategory(ctx context.Context, userID, id string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategory, userID, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const listCategoriesWithCount = `
SELECT c.id, c.user_id, c.name, c.description, c.color, c.icon, c.created_at, c.updated_at,
       COUNT(t.id) AS transaction_count
FROM categories c
LEFT JOIN transactions t ON t.category_id = c.id
WHERE c.user_id = ?
GROUP BY c.id
ORDER BY c.name ASC`

const getCategoryByName = `
SELECT id, user_id, name, description, color, icon, created_at, updated_at
FROM categories
WHERE user_id = ? AND name = ?`

func (q *Queries) GetCategoryByName(ctx context.Context, userID, name string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategoryByName, userID, name).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *Queries) ListCategoriesWithCount(ctx context.Context, userID string) ([]CategoryWithCountRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesWithCount, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryWithCountRow
	for rows.Next() {
		var i CategoryWithCountRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Description, &i.Color, &i.Icon,
			&i.CreatedAt, &i.UpdatedAt, &i.TransactionCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countCategories = `SELECT COUNT(*) FROM categories WHERE user_id = ?`

func (q *Queries) CountCategories(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategories, userID).Scan(&n)
	return n, err
}

// Transactions

const createTransaction = `
INSERT INTO transactions (id, user_id, amount_cents, description, date, type, status,
                          category_id, merchant, notes, source, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateTransactionParams struct {
	ID          string
	UserID      string
	AmountCents int64
	Description string
	Date        string
	Type        string
	Status      string
	CategoryID  string
	Merchant    string
	Notes       string
	Source      string
	CreatedAt   string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.UserID, arg.AmountCents, arg.Description, arg.Date, arg.Type, arg.Status,
		arg.CategoryID, arg.Merchant, arg.Notes, arg.Source, arg.CreatedAt)
	return err
}

const selectTransaction = `
SELECT t.id, t.user_id, t.amount_cents, t.description, t.date, t.type, t.status,
       t.category_id, t.merchant, t.notes, t.source, t.created_at, c.name, c.color, c.icon
FROM transactions t
JOIN categories c ON c.id = t.category_id`

const getTransaction = selectTransaction + `
WHERE t.user_id = ? AND t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, userID, id)
	var i TransactionRow
	err := row.Scan(&i.ID, &i.UserID, &i.AmountCents, &i.Description, &i.Date, &i.Type, &i.Status,
		&i.CategoryID, &i.Merchant, &i.Notes, &i.Source, &i.CreatedAt, &i.CategoryName, &i.CategoryColor, &i.CategoryIcon)
	return i, err
}

const listTransactions = selectTransaction + `
WHERE t.user_id = ?
  AND (? = '' OR t.type = ?)
  AND (? = '' OR t.category_id = ?)
ORDER BY t.date DESC, t.created_at DESC
LIMIT ? OFFSET ?`

type ListTransactionsParams struct {
	UserID     string
	Type       string
	CategoryID string
	Limit      int64
	Offset     int64
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions,
		arg.UserID, arg.Type, arg.Type, arg.CategoryID, arg.CategoryID, arg.Limit, arg.Offset)
}

const listTransactionsBetween = selectTransaction + `
WHERE t.user_id = ? AND t.date >= ? AND t.date < ?
ORDER BY t.date ASC, t.created_at ASC`

func (q *Queries) ListTransactionsBetween(ctx context.Context, userID, from, to string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsBetween, userID, from, to)
}

const listExpenses = selectTransaction + `
WHERE t.user_id = ? AND t.type = 'EXPENSE'
ORDER BY t.date DESC, t.created_at DESC`

func (q *Queries) ListExpenses(ctx context.Context, userID string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listExpenses, userID)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.AmountCents, &i.Description, &i.Date, &i.Type, &i.Status,
			&i.CategoryID, &i.Merchant, &i.Notes, &i.Source, &i.CreatedAt, &i.CategoryName, &i.CategoryColor, &i.CategoryIcon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTransaction = `
UPDATE transactions
SET amount_cents = ?, description = ?, date = ?, status = ?, category_id = ?,
    merchant = ?, notes = ?, source = ?
WHERE user_id = ? AND id = ?`

type UpdateTransactionParams struct {
	UserID      string
	ID          string
	AmountCents int64
	Description string
	Date        string
	Status      string
	CategoryID  string
	Merchant    string
	Notes       string
	Source      string
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.AmountCents, arg.Description, arg.Date, arg.Status, arg.CategoryID,
		arg.Merchant, arg.Notes, arg.Source, arg.UserID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countTransactions = `SELECT COUNT(*) FROM transactions WHERE user_id = ?`

func (q *Queries) CountTransactions(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions, userID).Scan(&n)
	return n, err
}

const getTransactionTotals = `
SELECT COUNT(*), COALESCE(SUM(amount_cents), 0)
FROM transactions
WHERE user_id = ? AND (? = '' OR type = ?)`

func (q *Queries) GetTransactionTotals(ctx context.Context, userID, typ string) (count, cents int64, err error) {
	err = q.db.QueryRowContext(ctx, getTransactionTotals, userID, typ, typ).Scan(&count, &cents)
	return count, cents, err
}

const listUsersWithTransactions = `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`

func (q *Queries) ListUsersWithTransactions(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

const getTypeTotals = `
SELECT COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount_cents END), 0),
       COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN amount_cents END), 0)
FROM transactions
WHERE user_id = ? AND date >= ? AND date < ?`

func (q *Queries) GetTypeTotals(ctx context.Context, userID, from, to string) (TypeTotalsRow, error) {
	var r TypeTotalsRow
	err := q.db.QueryRowContext(ctx, getTypeTotals, userID, from, to).Scan(&r.IncomeCents, &r.ExpenseCents)
	return r, err
}

const getCategorySums = `
SELECT c.name, c.color, c.icon, SUM(t.amount_cents) AS total_amount
FROM transactions t
JOIN categories c ON c.id = t.category_id
WHERE t.user_id = ? AND t.type = 'EXPENSE' AND t.date >= ? AND t.date < ?
GROUP BY c.id
ORDER BY total_amount DESC, c.name ASC`

func (q *Queries) GetCategorySums(ctx context.Context, userID, from, to string) ([]CategorySumRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategorySumRow
	for rows.Next() {
		var i CategorySumRow
		if err := rows.Scan(&i.CategoryName, &i.CategoryColor, &i.CategoryIcon, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Both window bounds are inclusive, matching core.Budget.Covers.
const sumExpensesInWindow = `
SELECT COALESCE(SUM(amount_cents), 0)
FROM transactions
WHERE user_id = ? AND type = 'EXPENSE' AND date >= ? AND date <= ?
  AND (? = '' OR category_id = ?)`

func (q *Queries) SumExpensesInWindow(ctx context.Context, userID, from, to, categoryID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, sumExpensesInWindow, userID, from, to, categoryID, categoryID).Scan(&n)
	return n, err
}

// Budgets

const createBudget = `
INSERT INTO budgets (id, user_id, name, amount_cents, period, start_date, end_date,
                     category_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateBudgetParams struct {
	ID          string
	UserID      string
	Name        string
	AmountCents int64
	Period      string
	StartDate   string
	EndDate     string
	CategoryID  sql.NullString
	CreatedAt   string
	UpdatedAt   string
}

func (q *Queries) CreateBudget(ctx context.Context, arg CreateBudgetParams) error {
	_, err := q.db.ExecContext(ctx, createBudget,
		arg.ID, arg.UserID, arg.Name, arg.AmountCents, arg.Period, arg.StartDate, arg.EndDate,
		arg.CategoryID, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const selectBudget = `
SELECT b.id, b.user_id, b.name, b.amount_cents, b.period, b.start_date, b.end_date,
       b.category_id, b.created_at, b.updated_at, c.name, c.color, c.icon
FROM budgets b
LEFT JOIN categories c ON c.id = b.category_id`

const listBudgets = selectBudget + `
WHERE b.user_id = ? AND (? = '' OR b.period = ?)
ORDER BY b.created_at DESC`

func (q *Queries) ListBudgets(ctx context.Context, userID, period string) ([]BudgetRow, error) {
	return q.queryBudgets(ctx, listBudgets, userID, period, period)
}

const listActiveBudgets = selectBudget + `
WHERE b.user_id = ? AND b.start_date <= ? AND b.end_date >= ?
ORDER BY b.created_at DESC`

func (q *Queries) ListActiveBudgets(ctx context.Context, userID, at string) ([]BudgetRow, error) {
	return q.queryBudgets(ctx, listActiveBudgets, userID, at, at)
}

func (q *Queries) queryBudgets(ctx context.Context, query string, args ...interface{}) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BudgetRow
	for rows.Next() {
		var i BudgetRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.AmountCents, &i.Period, &i.StartDate, &i.EndDate,
			&i.CategoryID, &i.CreatedAt, &i.UpdatedAt, &i.CategoryName, &i.CategoryColor, &i.CategoryIcon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countBudgets = `SELECT COUNT(*) FROM budgets WHERE user_id = ?`

func (q *Queries) CountBudgets(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBudgets, userID).Scan(&n)
	return n, err
}

// Notifications

// A NULL dedup_key never conflicts, so notifications without one are always stored.
const insertNotification = `
INSERT INTO notifications (id, user_id, title, message, type, metadata, dedup_key, is_read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
ON CONFLICT (user_id, dedup_key) DO NOTHING`

func (q *Queries) InsertNotification(ctx context.Context, arg Notification) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertNotification,
		arg.ID, arg.UserID, arg.Title, arg.Message, arg.Type, arg.Metadata, arg.DedupKey, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listNotifications = `
SELECT id, user_id, title, message, type, metadata, dedup_key, is_read, created_at
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, id ASC
LIMIT ?`

func (q *Queries) ListNotifications(ctx context.Context, userID string, limit int64) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.UserID, &i.Title, &i.Message, &i.Type, &i.Metadata,
			&i.DedupKey, &i.IsRead, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countUnreadNotifications = `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`

func (q *Queries) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUnreadNotifications, userID).Scan(&n)
	return n, err
}

const markNotificationRead = `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND id = ?`

func (q *Queries) MarkNotificationRead(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markNotificationRead, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markAllNotificationsRead = `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteNotification = `DELETE FROM notifications WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteNotification(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteNotification, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Notification preferences

const getNotificationPreferences = `
SELECT user_id, budget_alerts, spending_warnings, goal_notifications, payment_reminders,
       email_notifications, push_notifications, updated_at
FROM notification_preferences
WHERE user_id = ?`

func (q *Queries) GetNotificationPreferences(ctx context.Context, userID string) (NotificationPreference, error) {
	var p NotificationPreference
	err := q.db.QueryRowContext(ctx, getNotificationPreferences, userID).Scan(
		&p.UserID, &p.BudgetAlerts, &p.SpendingWarnings, &p.GoalNotifications, &p.PaymentReminders,
		&p.EmailNotifications, &p.PushNotifications, &p.UpdatedAt)
	return p, err
}

const upsertNotificationPreferences = `
INSERT INTO notification_preferences (user_id, budget_alerts, spending_warnings, goal_notifications,
                                      payment_reminders, email_notifications, push_notifications, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    budget_alerts       = excluded.budget_alerts,
    spending_warnings   = excluded.spending_warnings,
    goal_notifications  = excluded.goal_notifications,
    payment_reminders   = excluded.payment_reminders,
    email_notifications = excluded.email_notifications,
    push_notifications  = excluded.push_notifications,
    updated_at          = excluded.updated_at`

func (q *Queries) UpsertNotificationPreferences(ctx context.Context, arg NotificationPreference) error {
	_, err := q.db.ExecContext(ctx, upsertNotificationPreferences,
		arg.UserID, arg.BudgetAlerts, arg.SpendingWarnings, arg.GoalNotifications, arg.PaymentReminders,
		arg.EmailNotifications, arg.PushNotifications, arg.UpdatedAt)
	return err
}
