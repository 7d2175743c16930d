package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
	"fintrack/internal/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNotificationService_Preferences(t *testing.T) {
	ctx := context.Background()
	svc := NewNotificationService(newRepo(t), nil)

	p, err := svc.Preferences(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.BudgetAlerts || !p.PaymentReminders || p.EmailNotifications || !p.PushNotifications {
		t.Errorf("defaults = %+v", p)
	}

	on, off := true, false
	p, err = svc.UpdatePreferences(ctx, "u1", PreferencesPatch{EmailNotifications: &on, BudgetAlerts: &off})
	if err != nil {
		t.Fatal(err)
	}
	if !p.EmailNotifications || p.BudgetAlerts || !p.SpendingWarnings {
		t.Errorf("patched = %+v", p)
	}

	again, err := svc.Preferences(ctx, "u1")
	if err != nil || again.BudgetAlerts || !again.EmailNotifications {
		t.Errorf("reloaded = %+v, %v", again, err)
	}

	if _, err := svc.Preferences(ctx, " "); !errors.Is(err, core.ErrMissingUser) {
		t.Errorf("blank user err = %v", err)
	}
}

func TestNotificationService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	svc := NewNotificationService(newRepo(t), m)

	n := SpendingWarning(core.Transaction{ID: "t1", UserID: "u1", Amount: core.Money{Cents: 75000}, Description: "Laptop"})
	for i, want := range []bool{true, false} {
		ok, err := svc.Notify(ctx, n)
		if err != nil || ok != want {
			t.Fatalf("Notify #%d = %v, %v; want %v", i, ok, err, want)
		}
	}
	if _, err := svc.Notify(ctx, IncomeAdded(core.Transaction{ID: "t2", UserID: "u1", Amount: core.Money{Cents: 100}, Merchant: "Acme"})); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx, "u1", 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %d, %v", len(list), err)
	}
	if c, _ := svc.UnreadCount(ctx, "u1"); c != 2 {
		t.Errorf("unread = %d", c)
	}

	if err := svc.MarkRead(ctx, "u1", list[0].ID); err != nil {
		t.Fatal(err)
	}
	if c, _ := svc.UnreadCount(ctx, "u1"); c != 1 {
		t.Errorf("unread after MarkRead = %d", c)
	}
	if err := svc.MarkRead(ctx, "u2", list[1].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-user MarkRead err = %v", err)
	}

	if updated, err := svc.MarkAllRead(ctx, "u1"); err != nil || updated != 1 {
		t.Errorf("MarkAllRead = %d, %v", updated, err)
	}
	if err := svc.Delete(ctx, "u1", list[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "u1", list[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}

	deduped, err := testutil.GatherAndCount(m.Registry, "fintrack_notifications_deduplicated_total")
	if err != nil || deduped != 1 {
		t.Errorf("dedup series = %d, %v", deduped, err)
	}
}

func TestPaymentReminderKey(t *testing.T) {
	b := recurring.Bill{
		ID: "recurring-t9", Name: "Gym", Amount: core.Money{Cents: 4500},
		NextDueDate: core.NewDate(2025, 4, 1), Status: recurring.Overdue,
	}
	n := PaymentReminder("u1", b)
	if n.DedupKey != "reminder:recurring-t9:2025-04-01" {
		t.Errorf("dedup key = %q", n.DedupKey)
	}
	if n.Message != "Gym payment of $45.00 is due on 2025-04-01" || n.Metadata["status"] != "Overdue" {
		t.Errorf("reminder = %+v", n)
	}
}
