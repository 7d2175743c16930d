package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	incomeCategoryName  = "Income"
	incomeCategoryColor = "#16A34A"
	defaultIncomeLabel  = "Income"
	defaultIncomeSource = "Unknown"
)

// IncomePage is one page of a user's income plus totals over all of it.
type IncomePage struct {
	Income      []core.Transaction
	Page        int
	Limit       int
	Total       int64
	TotalPages  int
	TotalAmount core.Money
}

// ListIncome pages through the user's income, newest first. Pages start at 1.
func (s *TransactionService) ListIncome(ctx context.Context, userID string, page, limit int) (IncomePage, error) {
	if strings.TrimSpace(userID) == "" {
		return IncomePage{}, core.ErrMissingUser
	}
	if page < 1 {
		page = 1
	}
	limit = ClampLimit(limit)

	items, err := s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		Type:   core.Income,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return IncomePage{}, err
	}
	count, sum, err := s.store.TransactionTotals(ctx, userID, core.Income)
	if err != nil {
		return IncomePage{}, err
	}

	return IncomePage{
		Income:      items,
		Page:        page,
		Limit:       limit,
		Total:       count,
		TotalPages:  int((count + int64(limit) - 1) / int64(limit)),
		TotalAmount: sum,
	}, nil
}

// CreateIncome records income. Description, source and date default when
// empty, and income without a category is filed under the user's "Income"
// category, which is created on first use.
func (s *TransactionService) CreateIncome(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if strings.TrimSpace(t.UserID) == "" {
		return core.Transaction{}, core.ErrMissingUser
	}
	t.Type = core.Income
	if strings.TrimSpace(t.Description) == "" {
		t.Description = defaultIncomeLabel
	}
	t.Source = strings.TrimSpace(t.Source)
	if t.Source == "" {
		t.Source = defaultIncomeSource
	}
	if t.Date.IsZero() {
		now := s.now().UTC()
		t.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if t.Status == "" {
		t.Status = core.StatusApproved
	}
	if strings.TrimSpace(t.Category.ID) == "" {
		// A rejected request must not leave the category behind.
		check := t
		check.Category.ID = incomeCategoryName
		if err := check.Validate(); err != nil {
			return core.Transaction{}, err
		}
		cat, err := s.store.EnsureCategory(ctx, core.Category{
			UserID: t.UserID,
			Name:   incomeCategoryName,
			Color:  incomeCategoryColor,
		})
		if err != nil {
			return core.Transaction{}, fmt.Errorf("income category: %w", err)
		}
		t.Category = cat
	}
	return s.Create(ctx, t)
}

// incomeOf returns the user's income record, treating any other transaction
// as missing.
func (s *TransactionService) incomeOf(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Type != core.Income {
		return core.Transaction{}, fmt.Errorf("income %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}

func (s *TransactionService) UpdateIncome(ctx context.Context, userID, id string, p TransactionPatch) (core.Transaction, error) {
	current, err := s.incomeOf(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	return s.update(ctx, current, p)
}

func (s *TransactionService) DeleteIncome(ctx context.Context, userID, id string) error {
	if _, err := s.incomeOf(ctx, userID, id); err != nil {
		return err
	}
	return s.Delete(ctx, userID, id)
}
