package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRange is returned for a report range that ends before it starts.
var ErrInvalidRange = errors.New("invalid date range")

const recentTransactions = 10

type Dashboard struct {
	Overview core.MonthOverview
	Recent   []core.Transaction
	Budgets  []BudgetProgress
	Counts   core.Counts
}

type Report struct {
	From        time.Time
	To          time.Time // inclusive day
	Summary     core.FinancialSummary
	Trends      []core.MonthTrend
	Categories  []core.CategoryShare
	SavingsRate decimal.Decimal
}

// DashboardService assembles the dashboard and date-range reports. Month
// overviews are cached per user and month until a write for that user.
type DashboardService struct {
	store   ReportStore
	budgets *BudgetService
	cache   cache.Cache[core.MonthOverview]
	now     func() time.Time

	// gens counts invalidations per user; a read only populates the cache
	// when no invalidation happened while it was in flight.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewDashboardService(store ReportStore, budgets *BudgetService, c cache.Cache[core.MonthOverview]) *DashboardService {
	return &DashboardService{store: store, budgets: budgets, cache: c, now: time.Now, gens: make(map[string]uint64)}
}

var _ Invalidator = (*DashboardService)(nil)

func overviewKey(userID string, year, month int) string {
	return fmt.Sprintf("%s:%04d-%02d", userID, year, month)
}

// InvalidateUser drops every cached overview of the user.
func (s *DashboardService) InvalidateUser(userID string) {
	if s == nil || s.cache == nil {
		return
	}
	s.mu.Lock()
	s.gens[userID]++
	n := s.cache.DeletePrefix(userID + ":")
	s.mu.Unlock()
	if n > 0 {
		slog.Debug("Invalidated dashboard cache", "component", "cache", "user_id", userID, "entries", n)
	}
}

// MonthOverview returns the cached overview or reads and caches it.
func (s *DashboardService) MonthOverview(ctx context.Context, userID string, year, month int) (core.MonthOverview, error) {
	key := overviewKey(userID, year, month)
	var gen uint64
	if s.cache != nil {
		if ov, ok := s.cache.Get(key); ok {
			return ov, nil
		}
		s.mu.Lock()
		gen = s.gens[userID]
		s.mu.Unlock()
	}
	ov, err := s.store.ReadMonthOverview(ctx, userID, year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.gens[userID] == gen {
			s.cache.Set(key, ov)
		}
		s.mu.Unlock()
	}
	return ov, nil
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	if strings.TrimSpace(userID) == "" {
		return Dashboard{}, core.ErrMissingUser
	}
	now := s.now().UTC()
	var d Dashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ov, err := s.MonthOverview(gctx, userID, now.Year(), int(now.Month()))
		d.Overview = ov
		return err
	})
	g.Go(func() error {
		recent, err := s.store.ListTransactions(gctx, userID, storage.TransactionFilter{Limit: recentTransactions})
		d.Recent = recent
		return err
	})
	g.Go(func() error {
		if s.budgets == nil {
			return nil
		}
		b, err := s.budgets.Active(gctx, userID)
		d.Budgets = b
		return err
	})
	g.Go(func() error {
		c, err := s.store.Counts(gctx, userID)
		d.Counts = c
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("build dashboard: %w", err)
	}
	return d, nil
}

// Report covers [from, to] by calendar day. Zero bounds default to the six
// months ending today.
func (s *DashboardService) Report(ctx context.Context, userID string, from, to time.Time) (Report, error) {
	if strings.TrimSpace(userID) == "" {
		return Report{}, core.ErrMissingUser
	}
	now := s.now().UTC()
	if to.IsZero() {
		to = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if from.IsZero() {
		from = core.NewDate(to.Year(), int(to.Month()), 1).AddDate(0, -5, 0)
	}
	if to.Before(from) {
		return Report{}, ErrInvalidRange
	}

	txs, err := s.store.ListTransactionsBetween(ctx, userID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return Report{}, err
	}
	summary := core.SummarizeTransactions(txs)
	return Report{
		From:        from,
		To:          to,
		Summary:     summary,
		Trends:      core.MonthlyTrends(txs),
		Categories:  core.CategoryDistribution(txs),
		SavingsRate: core.SavingsRate(summary.Income, summary.Expenses),
	}, nil
}
