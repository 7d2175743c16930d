package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
)

// BillQuery narrows Bills. A nil DueWithinDays keeps every bill.
type BillQuery struct {
	Statuses      []recurring.Status
	DueWithinDays *int
}

// RecurringBillService runs bill inference over a user's stored expenses.
type RecurringBillService struct {
	source  ExpenseSource
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRecurringBillService(source ExpenseSource, m *metrics.Metrics) *RecurringBillService {
	return &RecurringBillService{source: source, metrics: m, now: time.Now}
}

// Bills returns the user's recurring bills, soonest due first.
func (s *RecurringBillService) Bills(ctx context.Context, userID string, q BillQuery) ([]recurring.Bill, error) {
	return s.BillsAt(ctx, userID, s.now(), q)
}

// BillsAt is Bills evaluated against an explicit reference time.
func (s *RecurringBillService) BillsAt(ctx context.Context, userID string, now time.Time, q BillQuery) ([]recurring.Bill, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrMissingUser
	}
	expenses, err := s.source.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	bills := recurring.Detect(expenses, now)
	s.metrics.ObserveBillsDetected(len(bills))

	if len(q.Statuses) > 0 {
		bills = recurring.WithStatus(bills, q.Statuses...)
	}
	if q.DueWithinDays != nil {
		bills = recurring.DueWithin(bills, now, *q.DueWithinDays)
	}
	return bills, nil
}
