package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetProgress is a budget with its spending analysis as of the service clock.
type BudgetProgress struct {
	core.Budget
	core.BudgetAnalysis
}

type BudgetService struct {
	store BudgetStore
	cache Invalidator
	now   func() time.Time
}

func NewBudgetService(store BudgetStore, cache Invalidator) *BudgetService {
	return &BudgetService{store: store, cache: cache, now: time.Now}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Name = strings.TrimSpace(b.Name)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.CategoryID != "" {
		c, err := s.store.GetCategory(ctx, b.UserID, b.CategoryID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return core.Budget{}, fmt.Errorf("category %s: %w", b.CategoryID, ErrUnknownCategory)
			}
			return core.Budget{}, err
		}
		b.Category = &c
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	created.Category = b.Category
	if s.cache != nil {
		s.cache.InvalidateUser(b.UserID)
	}
	return created, nil
}

// List returns the user's budgets, optionally restricted to one period, with progress.
func (s *BudgetService) List(ctx context.Context, userID string, period core.BudgetPeriod) ([]BudgetProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrMissingUser
	}
	if period != "" && !period.Valid() {
		return nil, core.ErrInvalidPeriod
	}
	budgets, err := s.store.ListBudgets(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, budgets)
}

// Active returns budgets whose window contains now, with progress.
func (s *BudgetService) Active(ctx context.Context, userID string) ([]BudgetProgress, error) {
	budgets, err := s.store.ListActiveBudgets(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.withProgress(ctx, budgets)
}

func (s *BudgetService) withProgress(ctx context.Context, budgets []core.Budget) ([]BudgetProgress, error) {
	now := s.now()
	out := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		p, err := s.Progress(ctx, b, now)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *BudgetService) Progress(ctx context.Context, b core.Budget, now time.Time) (BudgetProgress, error) {
	spent, err := s.store.SpentInBudget(ctx, b)
	if err != nil {
		return BudgetProgress{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	return BudgetProgress{
		Budget:         b,
		BudgetAnalysis: core.AnalyzeBudget(b.Amount, spent, b.StartDate, b.EndDate, now),
	}, nil
}
