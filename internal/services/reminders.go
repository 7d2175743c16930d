package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
	"fintrack/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// ReminderStats summarizes one sweep.
type ReminderStats struct {
	Users     int
	Reminders int64
	Summaries int64
	Failures  int64
}

// ReminderProcessor sweeps every user with transactions, raising payment
// reminders for bills that are overdue or due soon and a summary of the
// previous month.
type ReminderProcessor struct {
	users         UserLister
	bills         *RecurringBillService
	notifications *NotificationService
	budgets       BudgetStore
	reports       ReportStore
	exporter      sheets.BillExporter
	metrics       *metrics.Metrics
	concurrency   int
}

func NewReminderProcessor(
	users UserLister,
	bills *RecurringBillService,
	notifications *NotificationService,
	budgets BudgetStore,
	reports ReportStore,
	exporter sheets.BillExporter,
	m *metrics.Metrics,
	concurrency int,
) *ReminderProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReminderProcessor{
		users:         users,
		bills:         bills,
		notifications: notifications,
		budgets:       budgets,
		reports:       reports,
		exporter:      exporter,
		metrics:       m,
		concurrency:   concurrency,
	}
}

// ProcessReminders runs one sweep at now. A failing user is logged and counted;
// it never stops the others. Only failing to list users is returned.
func (p *ReminderProcessor) ProcessReminders(ctx context.Context, now time.Time) (ReminderStats, error) {
	start := time.Now()
	var stats ReminderStats

	userIDs, err := p.users.ListUserIDs(ctx)
	if err != nil {
		p.metrics.ObserveReminderRun("error", time.Since(start))
		return stats, fmt.Errorf("list users: %w", err)
	}
	stats.Users = len(userIDs)

	slog.InfoContext(ctx, "Processing payment reminders",
		"users", len(userIDs),
		"processing_date", now.Format("2006-01-02"))

	var reminders, summaries, failures atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r, s, err := p.processUser(ctx, userID, now)
			reminders.Add(int64(r))
			summaries.Add(int64(s))
			if err != nil {
				failures.Add(1)
				slog.ErrorContext(ctx, "Failed to process reminders for user",
					"user_id", userID,
					"error", err)
			}
			return nil
		})
	}
	g.Wait()

	stats.Reminders = reminders.Load()
	stats.Summaries = summaries.Load()
	stats.Failures = failures.Load()

	result := "ok"
	if stats.Failures > 0 {
		result = "partial"
	}
	p.metrics.ObserveReminderRun(result, time.Since(start))

	slog.InfoContext(ctx, "Payment reminder processing complete",
		"users", stats.Users,
		"reminders", stats.Reminders,
		"summaries", stats.Summaries,
		"failures", stats.Failures)
	return stats, ctx.Err()
}

func (p *ReminderProcessor) processUser(ctx context.Context, userID string, now time.Time) (int, int, error) {
	bills, err := p.bills.BillsAt(ctx, userID, now, BillQuery{})
	if err != nil {
		return 0, 0, err
	}

	if p.exporter != nil {
		if err := p.exporter.ExportBills(ctx, userID, bills, now); err != nil {
			slog.WarnContext(ctx, "Failed to export recurring bills", "user_id", userID, "error", err)
		}
	}

	prefs, err := p.notifications.Preferences(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	created := 0
	if prefs.PaymentReminders {
		for _, b := range recurring.WithStatus(bills, recurring.Overdue, recurring.DueSoon) {
			ok, err := p.notifications.Notify(ctx, PaymentReminder(userID, b))
			if err != nil {
				return created, 0, fmt.Errorf("bill %s: %w", b.ID, err)
			}
			if ok {
				created++
			}
		}
	}

	summaries, err := p.monthlySummary(ctx, userID, now)
	return created, summaries, err
}

// monthlySummary notifies about the calendar month before now, once per month.
func (p *ReminderProcessor) monthlySummary(ctx context.Context, userID string, now time.Time) (int, error) {
	if p.reports == nil {
		return 0, nil
	}
	thisMonth := core.NewDate(now.Year(), int(now.Month()), 1)
	prev := thisMonth.AddDate(0, -1, 0)

	ov, err := p.reports.ReadMonthOverview(ctx, userID, prev.Year(), int(prev.Month()))
	if err != nil {
		return 0, fmt.Errorf("month overview: %w", err)
	}
	if ov.Expenses.Cents == 0 {
		return 0, nil
	}

	var budgetTotal core.Money
	if p.budgets != nil {
		active, err := p.budgets.ListActiveBudgets(ctx, userID, thisMonth.AddDate(0, 0, -1))
		if err != nil {
			return 0, fmt.Errorf("active budgets: %w", err)
		}
		for _, b := range active {
			budgetTotal = budgetTotal.Add(b.Amount)
		}
	}

	top := "None"
	if len(ov.ByCategory) > 0 {
		top = ov.ByCategory[0].Name
	}

	ok, err := p.notifications.Notify(ctx, MonthlySummary(userID, prev, ov.Expenses, budgetTotal, top))
	if err != nil || !ok {
		return 0, err
	}
	return 1, nil
}
