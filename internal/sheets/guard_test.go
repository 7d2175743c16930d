package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

type flakyExporter struct {
	err   error
	calls int
}

func (f *flakyExporter) ExportBills(context.Context, string, []recurring.Bill, time.Time) error {
	f.calls++
	return f.err
}

func TestGuardedExporter_OpensAfterFailures(t *testing.T) {
	inner := &flakyExporter{err: errors.New("quota exceeded")}
	g := NewGuardedExporter(inner, "sheets", metrics.New())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.ExportBills(ctx, "u1", nil, time.Now()); err == nil || errors.Is(err, ErrExportUnavailable) {
			t.Fatalf("call %d: err = %v, want backend error", i, err)
		}
	}
	err := g.ExportBills(ctx, "u1", nil, time.Now())
	if !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("err = %v, want ErrExportUnavailable", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner exporter called %d times, want 3", inner.calls)
	}
}

func TestGuardedExporter_CountsExportedBills(t *testing.T) {
	m := metrics.New()
	g := NewGuardedExporter(&flakyExporter{}, "memory", m)

	bills := make([]recurring.Bill, 4)
	if err := g.ExportBills(context.Background(), "u1", bills, time.Now()); err != nil {
		t.Fatal(err)
	}
	n, err := testutil.GatherAndCount(m.Registry, "fintrack_exported_bills_total")
	if err != nil || n != 1 {
		t.Fatalf("exported series = %d, %v", n, err)
	}
}

func TestBillRows(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := BillRows([]recurring.Bill{{
		Name:            "Water",
		Amount:          core.Money{Cents: 5200},
		AverageAmount:   decimal.RequireFromString("50.666666"),
		Frequency:       recurring.Monthly,
		NextDueDate:     core.NewDate(2025, 4, 1),
		LastPaidDate:    core.NewDate(2025, 3, 2),
		Status:          recurring.Overdue,
		OccurrenceCount: 3,
	}}, at)

	if len(rows) != 2 || len(rows[0]) != len(Header) || len(rows[1]) != len(Header) {
		t.Fatalf("unexpected shape: %v", rows)
	}
	r := rows[1]
	if r[1] != 52.0 || r[2] != 50.67 || r[6] != "Overdue" || r[10] != "2025-03-10T09:00:00Z" {
		t.Errorf("unexpected row: %v", r)
	}
}
