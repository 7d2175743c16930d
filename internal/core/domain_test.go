package core

import (
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:      "user-1",
		Amount:      Money{Cents: 100},
		Description: "ok",
		Date:        NewDate(2025, 1, 1),
		Type:        Expense,
		Status:      StatusApproved,
		Category:    Category{ID: "cat-1"},
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutations := map[string]func(*Transaction){
		"missing user":    func(tx *Transaction) { tx.UserID = " " },
		"zero date":       func(tx *Transaction) { tx.Date = time.Time{} },
		"no description":  func(tx *Transaction) { tx.Description = "" },
		"zero amount":     func(tx *Transaction) { tx.Amount = Money{} },
		"bad type":        func(tx *Transaction) { tx.Type = "TRANSFER" },
		"bad status":      func(tx *Transaction) { tx.Status = "" },
		"no category":     func(tx *Transaction) { tx.Category.ID = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			tx := validTransaction()
			mutate(&tx)
			if err := tx.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		c  Category
		ok bool
	}{
		{Category{UserID: "u", Name: "Food"}, true},
		{Category{UserID: "u", Name: "Food", Color: "#FF6B6B"}, true},
		{Category{UserID: "u", Name: "Food", Color: "#abc"}, true},
		{Category{UserID: "u", Name: "Food", Color: "red"}, false},
		{Category{UserID: "u", Name: ""}, false},
		{Category{Name: "Food"}, false},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidateAndCovers(t *testing.T) {
	b := Budget{
		UserID:     "u",
		Name:       "Food",
		Amount:     Money{Cents: 50000},
		Period:     Monthly,
		StartDate:  NewDate(2025, 3, 1),
		EndDate:    NewDate(2025, 3, 31),
		CategoryID: "food",
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := b
	bad.EndDate = NewDate(2025, 2, 1)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}
	bad = b
	bad.Period = "DAILY"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for invalid period")
	}

	tx := validTransaction()
	tx.Date = NewDate(2025, 3, 10)
	tx.Category.ID = "food"
	if !b.Covers(tx) {
		t.Fatalf("expected budget to cover transaction in window and category")
	}
	tx.Category.ID = "travel"
	if b.Covers(tx) {
		t.Fatalf("expected category mismatch to be excluded")
	}
	b.CategoryID = ""
	if !b.Covers(tx) {
		t.Fatalf("expected uncategorised budget to cover every category")
	}
	tx.Type = Income
	if b.Covers(tx) {
		t.Fatalf("income must not count against a budget")
	}
}
