package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/recurring"
	"fintrack/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCategory(t *testing.T, repo *storage.SQLiteRepository, userID, name string) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{UserID: userID, Name: name, Color: "#336699"})
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func mustTx(t *testing.T, repo *storage.SQLiteRepository, userID string, cat core.Category, typ core.TransactionType, desc string, cents int64, date time.Time) core.Transaction {
	t.Helper()
	saved, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:      userID,
		Amount:      core.Money{Cents: cents},
		Description: desc,
		Date:        date,
		Type:        typ,
		Status:      core.StatusApproved,
		Category:    cat,
	})
	if err != nil {
		t.Fatalf("create transaction %s: %v", desc, err)
	}
	return saved
}

func mustBudget(t *testing.T, repo *storage.SQLiteRepository, b core.Budget) core.Budget {
	t.Helper()
	if b.Period == "" {
		b.Period = core.Monthly
	}
	saved, err := repo.CreateBudget(context.Background(), b)
	if err != nil {
		t.Fatalf("create budget %s: %v", b.Name, err)
	}
	return saved
}

func notificationsOfType(t *testing.T, repo *storage.SQLiteRepository, userID string, typ core.NotificationType) []core.Notification {
	t.Helper()
	all, err := repo.ListNotifications(context.Background(), userID, 500)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	var out []core.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []*amqp.TransactionEvent
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type recordingSink struct {
	events []*amqp.TransactionEvent
}

func (s *recordingSink) HandleTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	s.events = append(s.events, evt)
	return nil
}

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) InvalidateUser(userID string) {
	r.users = append(r.users, userID)
}

type fakeExporter struct {
	mu    sync.Mutex
	err   error
	calls map[string][]recurring.Bill
}

func (e *fakeExporter) ExportBills(_ context.Context, userID string, bills []recurring.Bill, _ time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.calls == nil {
		e.calls = make(map[string][]recurring.Bill)
	}
	e.calls[userID] = bills
	return e.err
}

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
