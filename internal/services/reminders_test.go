package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newReminderProcessor(repo *storage.SQLiteRepository, exporter *fakeExporter, m *metrics.Metrics) (*ReminderProcessor, *NotificationService) {
	notes := NewNotificationService(repo, m)
	bills := NewRecurringBillService(repo, m)
	if exporter == nil {
		return NewReminderProcessor(repo, bills, notes, repo, repo, nil, m, 2), notes
	}
	return NewReminderProcessor(repo, bills, notes, repo, repo, exporter, m, 2), notes
}

func seedNetflix(t *testing.T, repo *storage.SQLiteRepository, userID string) core.Category {
	t.Helper()
	cat := mustCategory(t, repo, userID, "Streaming")
	for month := 1; month <= 3; month++ {
		mustTx(t, repo, userID, cat, core.Expense, "Netflix", 1599, core.NewDate(2025, month, 1))
	}
	return cat
}

func TestReminderProcessor_DueSoonReminderOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedNetflix(t, repo, "u1")
	m := metrics.New()
	exporter := &fakeExporter{}
	p, _ := newReminderProcessor(repo, exporter, m)

	// Next due is Apr 1, three days out.
	now := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	stats, err := p.ProcessReminders(ctx, now)
	if err != nil {
		t.Fatalf("ProcessReminders: %v", err)
	}
	if stats.Users != 1 || stats.Reminders != 1 || stats.Failures != 0 {
		t.Errorf("stats = %+v", stats)
	}

	reminders := notificationsOfType(t, repo, "u1", core.NotificationPaymentReminder)
	if len(reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders))
	}
	if reminders[0].Message != "Netflix payment of $15.99 is due on 2025-04-01" {
		t.Errorf("message = %q", reminders[0].Message)
	}
	if reminders[0].Metadata["status"] != "Due Soon" {
		t.Errorf("metadata = %v", reminders[0].Metadata)
	}
	if got := exporter.calls["u1"]; len(got) != 1 {
		t.Errorf("exported %d bills, want 1", len(got))
	}

	stats, err = p.ProcessReminders(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reminders != 0 {
		t.Errorf("second sweep created %d reminders", stats.Reminders)
	}
	if n := len(notificationsOfType(t, repo, "u1", core.NotificationPaymentReminder)); n != 1 {
		t.Errorf("reminders after second sweep = %d", n)
	}
	if n, err := testutil.GatherAndCount(m.Registry, "fintrack_reminder_runs_total"); err != nil || n == 0 {
		t.Errorf("reminder runs were not recorded: n=%d err=%v", n, err)
	}
}

func TestReminderProcessor_ScheduledBillsAreQuiet(t *testing.T) {
	repo := newRepo(t)
	seedNetflix(t, repo, "u1")
	p, _ := newReminderProcessor(repo, nil, metrics.New())

	stats, err := p.ProcessReminders(context.Background(), core.NewDate(2025, 3, 10))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reminders != 0 {
		t.Errorf("reminded %d bills three weeks early", stats.Reminders)
	}
}

func TestReminderProcessor_RespectsPreferences(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedNetflix(t, repo, "u1")
	p, notes := newReminderProcessor(repo, nil, metrics.New())

	off := false
	if _, err := notes.UpdatePreferences(ctx, "u1", PreferencesPatch{PaymentReminders: &off}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessReminders(ctx, core.NewDate(2025, 4, 3)); err != nil {
		t.Fatal(err)
	}
	if n := len(notificationsOfType(t, repo, "u1", core.NotificationPaymentReminder)); n != 0 {
		t.Errorf("disabled reminders still produced %d", n)
	}
}

func TestReminderProcessor_MonthlySummary(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	streaming := seedNetflix(t, repo, "u1")
	rent := mustCategory(t, repo, "u1", "Rent")
	mustTx(t, repo, "u1", rent, core.Expense, "February rent", 120000, core.NewDate(2025, 2, 3))
	mustBudget(t, repo, core.Budget{
		UserID: "u1", Name: "February", Amount: core.Money{Cents: 200000},
		StartDate: core.NewDate(2025, 2, 1), EndDate: core.NewDate(2025, 2, 28),
	})
	mustBudget(t, repo, core.Budget{
		UserID: "u1", Name: "Streaming", Amount: core.Money{Cents: 2000},
		StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 12, 31),
		CategoryID: streaming.ID, Period: core.Yearly,
	})
	p, _ := newReminderProcessor(repo, nil, metrics.New())

	stats, err := p.ProcessReminders(ctx, core.NewDate(2025, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Summaries != 1 {
		t.Errorf("summaries = %d, want 1", stats.Summaries)
	}
	summaries := notificationsOfType(t, repo, "u1", core.NotificationMonthlySummary)
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	want := "Last month you spent $1215.99 of your $2020.00 budget. Top category: Rent"
	if summaries[0].Message != want {
		t.Errorf("message = %q, want %q", summaries[0].Message, want)
	}
	if summaries[0].DedupKey != "summary:2025-02" {
		t.Errorf("dedup key = %q", summaries[0].DedupKey)
	}

	if _, err := p.ProcessReminders(ctx, core.NewDate(2025, 3, 15)); err != nil {
		t.Fatal(err)
	}
	if n := len(notificationsOfType(t, repo, "u1", core.NotificationMonthlySummary)); n != 1 {
		t.Errorf("summary repeated within the month: %d", n)
	}
}

func TestReminderProcessor_NoUsers(t *testing.T) {
	p, _ := newReminderProcessor(newRepo(t), nil, metrics.New())
	stats, err := p.ProcessReminders(context.Background(), time.Now())
	if err != nil || stats.Users != 0 {
		t.Errorf("stats=%+v err=%v", stats, err)
	}
}
