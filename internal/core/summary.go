package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Color  string
	Icon   string
	Amount Money
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Expenses   Money
	ByCategory []CategoryAmount // expenses only
}

func (o MonthOverview) Net() Money {
	return o.Income.Sub(o.Expenses)
}

// MonthBounds returns the first instant of the month and the first instant of the next.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Counts holds per-user entity totals shown on the dashboard.
type Counts struct {
	Transactions int64
	Categories   int64
	Budgets      int64
}
