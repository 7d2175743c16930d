package services

import (
	"context"
	"strings"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type eventFixture struct {
	repo     *storage.SQLiteRepository
	handler  *EventHandler
	notes    *NotificationService
	exporter *fakeExporter
	food     core.Category
}

func newEventFixture(t *testing.T, withExporter bool) *eventFixture {
	t.Helper()
	repo := newRepo(t)
	m := metrics.New()
	notes := NewNotificationService(repo, m)
	bills := NewRecurringBillService(repo, m)
	f := &eventFixture{repo: repo, notes: notes, food: mustCategory(t, repo, "u1", "Food")}

	var exporter sheets.BillExporter
	if withExporter {
		f.exporter = &fakeExporter{}
		exporter = f.exporter
	}
	f.handler = NewEventHandler(repo, repo, notes, bills, exporter, EventThresholds{
		LargeExpense:       core.Money{Cents: 50000},
		BudgetAlertPercent: 80,
	})
	f.handler.now = fixedClock(core.NewDate(2025, 3, 20))
	return f
}

func (f *eventFixture) handle(t *testing.T, tx core.Transaction) {
	t.Helper()
	evt := amqp.NewTransactionCreatedEvent(tx.ID, tx.UserID, string(tx.Type))
	if err := f.handler.HandleTransactionEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleTransactionEvent: %v", err)
	}
}

func TestEventHandler_SpendingWarning(t *testing.T) {
	f := newEventFixture(t, false)

	small := mustTx(t, f.repo, "u1", f.food, core.Expense, "Groceries", 49999, core.NewDate(2025, 3, 5))
	f.handle(t, small)
	if n := notificationsOfType(t, f.repo, "u1", core.NotificationSpendingWarning); len(n) != 0 {
		t.Fatalf("below threshold produced %d warnings", len(n))
	}

	large := mustTx(t, f.repo, "u1", f.food, core.Expense, "Catering", 50000, core.NewDate(2025, 3, 6))
	f.handle(t, large)
	f.handle(t, large) // redelivery
	warnings := notificationsOfType(t, f.repo, "u1", core.NotificationSpendingWarning)
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Title != "Large Expense Detected" || warnings[0].Message != "Unusual spending: $500.00 on Catering" {
		t.Errorf("unexpected warning: %+v", warnings[0])
	}
}

func TestEventHandler_BudgetAlertsOncePerLevel(t *testing.T) {
	f := newEventFixture(t, false)
	budget := mustBudget(t, f.repo, core.Budget{
		UserID: "u1", Name: "Groceries", Amount: core.Money{Cents: 10000},
		StartDate: core.NewDate(2025, 3, 1), EndDate: core.NewDate(2025, 3, 31),
		CategoryID: f.food.ID,
	})

	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Market", 7000, core.NewDate(2025, 3, 3)))
	if n := notificationsOfType(t, f.repo, "u1", core.NotificationBudgetAlert); len(n) != 0 {
		t.Fatalf("70%% should not alert, got %d", len(n))
	}

	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Market", 1500, core.NewDate(2025, 3, 4)))
	alerts := notificationsOfType(t, f.repo, "u1", core.NotificationBudgetAlert)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts at 85%%, want 1", len(alerts))
	}
	if alerts[0].Message != "You've spent 85% of your Groceries budget ($85.00 of $100.00)" {
		t.Errorf("alert message = %q", alerts[0].Message)
	}
	if alerts[0].Metadata["budgetId"] != budget.ID {
		t.Errorf("alert metadata = %v", alerts[0].Metadata)
	}

	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Market", 2000, core.NewDate(2025, 3, 5)))
	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Market", 500, core.NewDate(2025, 3, 6)))

	if n := notificationsOfType(t, f.repo, "u1", core.NotificationBudgetAlert); len(n) != 1 {
		t.Errorf("alert repeated: %d", len(n))
	}
	exceeded := notificationsOfType(t, f.repo, "u1", core.NotificationBudgetExceeded)
	if len(exceeded) != 1 {
		t.Fatalf("got %d exceeded notices, want 1", len(exceeded))
	}
	if exceeded[0].Message != "You've exceeded your Groceries budget by $5.00 ($105.00 of $100.00)" {
		t.Errorf("exceeded message = %q", exceeded[0].Message)
	}
}

func TestEventHandler_BudgetIgnoresOtherCategoriesAndWindows(t *testing.T) {
	f := newEventFixture(t, false)
	rent := mustCategory(t, f.repo, "u1", "Rent")
	mustBudget(t, f.repo, core.Budget{
		UserID: "u1", Name: "Groceries", Amount: core.Money{Cents: 1000},
		StartDate: core.NewDate(2025, 3, 1), EndDate: core.NewDate(2025, 3, 31),
		CategoryID: f.food.ID,
	})

	f.handle(t, mustTx(t, f.repo, "u1", rent, core.Expense, "Rent", 90000, core.NewDate(2025, 3, 1)))
	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Market", 5000, core.NewDate(2025, 4, 2)))

	if n := notificationsOfType(t, f.repo, "u1", core.NotificationBudgetExceeded); len(n) != 0 {
		t.Errorf("unexpected exceeded notices: %d", len(n))
	}
}

func TestEventHandler_PreferencesGate(t *testing.T) {
	f := newEventFixture(t, false)
	off := false
	if _, err := f.notes.UpdatePreferences(context.Background(), "u1", PreferencesPatch{SpendingWarnings: &off, BudgetAlerts: &off}); err != nil {
		t.Fatal(err)
	}
	mustBudget(t, f.repo, core.Budget{
		UserID: "u1", Name: "All", Amount: core.Money{Cents: 100},
		StartDate: core.NewDate(2025, 3, 1), EndDate: core.NewDate(2025, 3, 31),
	})

	f.handle(t, mustTx(t, f.repo, "u1", f.food, core.Expense, "Banquet", 90000, core.NewDate(2025, 3, 2)))

	all, _ := f.repo.ListNotifications(context.Background(), "u1", 50)
	if len(all) != 0 {
		t.Errorf("disabled preferences still produced %d notifications", len(all))
	}
}

func TestEventHandler_IncomeAdded(t *testing.T) {
	f := newEventFixture(t, true)
	salary := mustCategory(t, f.repo, "u1", "Salary")
	tx, err := f.repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: "u1", Amount: core.Money{Cents: 320000}, Description: "March payroll",
		Date: core.NewDate(2025, 3, 25), Type: core.Income, Status: core.StatusApproved,
		Category: salary, Merchant: "Acme Corp",
	})
	if err != nil {
		t.Fatal(err)
	}
	f.handle(t, tx)

	got := notificationsOfType(t, f.repo, "u1", core.NotificationIncomeAdded)
	if len(got) != 1 || got[0].Message != "New income of $3200.00 from Acme Corp has been recorded" {
		t.Fatalf("income notifications = %+v", got)
	}
	if len(f.exporter.calls) != 0 {
		t.Error("income must not trigger a bill export")
	}
}

func TestEventHandler_ExpenseRefreshesExport(t *testing.T) {
	f := newEventFixture(t, true)
	for _, d := range []int{1, 2, 3} {
		mustTx(t, f.repo, "u1", f.food, core.Expense, "Netflix", 1599, core.NewDate(2025, d, 1))
	}
	last := mustTx(t, f.repo, "u1", f.food, core.Expense, "Coffee", 300, core.NewDate(2025, 3, 10))

	f.handle(t, last)

	bills := f.exporter.calls["u1"]
	if len(bills) != 1 || bills[0].Name != "Netflix" {
		t.Fatalf("exported %+v", bills)
	}
}

func TestEventHandler_MissingTransactionIsSkipped(t *testing.T) {
	f := newEventFixture(t, false)
	evt := amqp.NewTransactionCreatedEvent("gone", "u1", "EXPENSE")
	if err := f.handler.HandleTransactionEvent(context.Background(), evt); err != nil {
		t.Errorf("expected nil for a deleted transaction, got %v", err)
	}

	evt.Event = "transaction.archived"
	if err := f.handler.HandleTransactionEvent(context.Background(), evt); err != nil {
		t.Errorf("unsupported events should be ignored, got %v", err)
	}
}

func TestNotificationBuilders(t *testing.T) {
	b := core.Budget{ID: "b1", UserID: "u1", Name: "Fun", Amount: core.Money{Cents: 20000}}
	alert := BudgetAlert(b, core.Money{Cents: 16666})
	if alert.Message != "You've spent 83% of your Fun budget ($166.66 of $200.00)" || alert.DedupKey != "budget:b1:alert" {
		t.Errorf("alert = %+v", alert)
	}

	summary := MonthlySummary("u1", core.NewDate(2025, 2, 1), core.Money{Cents: 123456}, core.Money{}, "Rent")
	if summary.DedupKey != "summary:2025-02" || !strings.Contains(summary.Message, "$1234.56 of your $0.00 budget. Top category: Rent") {
		t.Errorf("summary = %+v", summary)
	}

	income := IncomeAdded(core.Transaction{ID: "t1", UserID: "u1", Amount: core.Money{Cents: 100}})
	if !strings.Contains(income.Message, "from Unknown") {
		t.Errorf("income without source = %q", income.Message)
	}
}
