package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/recurring"

	"github.com/shopspring/decimal"
)

func TestStoreExportReplacesPreviousRows(t *testing.T) {
	s := New()
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	bills := []recurring.Bill{
		{Name: "Netflix", Amount: core.Money{Cents: 1599}, AverageAmount: decimal.RequireFromString("15.99"),
			Frequency: recurring.Monthly, NextDueDate: core.NewDate(2025, 4, 1), LastPaidDate: core.NewDate(2025, 3, 1),
			Status: recurring.Scheduled, OccurrenceCount: 3, Category: "Entertainment"},
		{Name: "Gym", Amount: core.Money{Cents: 4000}, AverageAmount: decimal.NewFromInt(40),
			Frequency: recurring.Monthly, NextDueDate: core.NewDate(2025, 3, 3), Status: recurring.DueSoon, OccurrenceCount: 4},
	}

	if err := s.ExportBills(ctx, "u1", bills, at); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := s.Rows("u1")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "Netflix" || rows[1][1] != 15.99 || rows[1][4] != "2025-04-01" || rows[2][6] != "Due Soon" {
		t.Errorf("unexpected rows: %v", rows)
	}

	if err := s.ExportBills(ctx, "u1", bills[:1], at); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := len(s.Rows("u1")); got != 2 {
		t.Errorf("second export should replace the first, got %d rows", got)
	}
	if s.Exports() != 2 {
		t.Errorf("Exports() = %d, want 2", s.Exports())
	}
	if len(s.Rows("u2")) != 0 {
		t.Error("rows leaked to another user")
	}
}

func TestStoreRejectsMissingUser(t *testing.T) {
	if err := New().ExportBills(context.Background(), " ", nil, time.Now()); err == nil {
		t.Fatal("expected error for empty user id")
	}
}
