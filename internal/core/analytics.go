package core

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Progress levels for budget bars.
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

var hundred = decimal.NewFromInt(100)

// FinancialSummary totals a set of transactions.
type FinancialSummary struct {
	Income   Money
	Expenses Money
	Net      Money
	// Average is the mean absolute transaction value across both types.
	Average decimal.Decimal
	Count   int
}

func SummarizeTransactions(txs []Transaction) FinancialSummary {
	var s FinancialSummary
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expenses)
	s.Count = len(txs)
	s.Average = decimal.Zero
	if s.Count > 0 {
		s.Average = s.Income.Add(s.Expenses).Decimal().Div(decimal.NewFromInt(int64(s.Count)))
	}
	return s
}

// BudgetAnalysis is the derived state of a budget at a point in time.
type BudgetAnalysis struct {
	Spent             Money
	Remaining         Money
	PercentageUsed    decimal.Decimal
	IsOverBudget      bool
	DaysRemaining     int
	DailyBudget       decimal.Decimal
	ProjectedSpending decimal.Decimal
	Level             string
}

// AnalyzeBudget derives spending pace for a budget window. Day counts round up,
// so a window that started an hour ago has one elapsed day.
func AnalyzeBudget(amount, spent Money, start, end, now time.Time) BudgetAnalysis {
	a := BudgetAnalysis{
		Spent:             spent,
		Remaining:         amount.Sub(spent),
		PercentageUsed:    decimal.Zero,
		IsOverBudget:      spent.Cents > amount.Cents,
		DailyBudget:       decimal.Zero,
		ProjectedSpending: decimal.Zero,
	}
	if amount.Cents > 0 {
		a.PercentageUsed = spent.Decimal().Div(amount.Decimal()).Mul(hundred)
	}

	totalDays := ceilDays(end.Sub(start))
	elapsed := ceilDays(now.Sub(start))
	a.DaysRemaining = totalDays - elapsed
	if a.DaysRemaining < 0 {
		a.DaysRemaining = 0
	}

	if a.DaysRemaining > 0 {
		a.DailyBudget = a.Remaining.Decimal().Div(decimal.NewFromInt(int64(a.DaysRemaining)))
	}
	if elapsed > 0 {
		rate := spent.Decimal().Div(decimal.NewFromInt(int64(elapsed)))
		a.ProjectedSpending = rate.Mul(decimal.NewFromInt(int64(totalDays)))
	}
	a.Level = ProgressLevel(a.PercentageUsed)
	return a
}

// ProgressLevel buckets a usage percentage: below 75 is success, below 90 warning.
func ProgressLevel(pct decimal.Decimal) string {
	switch {
	case pct.LessThan(decimal.NewFromInt(75)):
		return LevelSuccess
	case pct.LessThan(decimal.NewFromInt(90)):
		return LevelWarning
	default:
		return LevelError
	}
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

type MonthTrend struct {
	Month    string // YYYY-MM
	Income   Money
	Expenses Money
	Net      Money
}

// MonthlyTrends buckets transactions by UTC calendar month, oldest month first.
func MonthlyTrends(txs []Transaction) []MonthTrend {
	byMonth := make(map[string]*MonthTrend)
	for _, t := range txs {
		key := t.Date.UTC().Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthTrend{Month: key}
			byMonth[key] = m
		}
		if t.Type == Income {
			m.Income = m.Income.Add(t.Amount)
		} else {
			m.Expenses = m.Expenses.Add(t.Amount)
		}
	}

	out := make([]MonthTrend, 0, len(byMonth))
	for _, m := range byMonth {
		m.Net = m.Income.Sub(m.Expenses)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

type CategoryShare struct {
	Name       string
	Color      string
	Amount     Money
	Percentage decimal.Decimal
}

// CategoryDistribution splits expenses by category name, largest first.
func CategoryDistribution(txs []Transaction) []CategoryShare {
	var total Money
	index := make(map[string]int)
	var out []CategoryShare
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		total = total.Add(t.Amount)
		i, ok := index[t.Category.Name]
		if !ok {
			i = len(out)
			index[t.Category.Name] = i
			out = append(out, CategoryShare{Name: t.Category.Name, Color: t.Category.Color})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}

	for i := range out {
		out[i].Percentage = decimal.Zero
		if total.Cents > 0 {
			out[i].Percentage = out[i].Amount.Decimal().Div(total.Decimal()).Mul(hundred)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	if out == nil {
		out = []CategoryShare{}
	}
	return out
}

// SavingsRate is the share of income kept, in percent. No income yields zero.
func SavingsRate(income, expenses Money) decimal.Decimal {
	if income.Cents <= 0 {
		return decimal.Zero
	}
	return income.Sub(expenses).Decimal().Div(income.Decimal()).Mul(hundred)
}
