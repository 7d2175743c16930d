// Package recurring infers recurring bills from a user's expense history.
//
// Expenses sharing a case-insensitive description and an exact amount form a
// series; a series of at least MinOccurrences payments is treated as a bill whose
// frequency, next due date and urgency are derived from its dates. Everything here
// is a pure function of the input transactions and the supplied "now".
package recurring

import (
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// MinOccurrences is the smallest series treated as recurring.
const MinOccurrences = 3

// Bill summarizes one recurring series. Display fields come from the most recent
// payment; only AverageAmount aggregates the whole series.
type Bill struct {
	ID              string
	Name            string
	Amount          core.Money
	Category        string
	CategoryColor   string
	Frequency       Frequency
	NextDueDate     time.Time
	LastPaidDate    time.Time
	Merchant        string
	Status          Status
	OccurrenceCount int
	AverageAmount   decimal.Decimal
}

type seriesKey struct {
	description string
	cents       int64
}

// Group partitions expenses into series keyed by lower-cased description and
// amount, dropping series shorter than MinOccurrences. Series are returned in
// order of first appearance.
func Group(txs []core.Transaction) [][]core.Transaction {
	index := make(map[seriesKey]int)
	var groups [][]core.Transaction
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		key := seriesKey{description: strings.ToLower(t.Description), cents: t.Amount.Cents}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}

	series := groups[:0]
	for _, g := range groups {
		if len(g) >= MinOccurrences {
			series = append(series, g)
		}
	}
	return series
}

// Summarize builds the Bill for one series. It does not enforce MinOccurrences or
// amount equality; callers that group with Group get both for free.
func Summarize(series []core.Transaction, now time.Time) Bill {
	if len(series) == 0 {
		return Bill{}
	}

	latest := series[0]
	dates := make([]time.Time, len(series))
	sum := decimal.Zero
	for i, t := range series {
		dates[i] = t.Date
		sum = sum.Add(t.Amount.Decimal())
		if t.Date.After(latest.Date) {
			latest = t
		}
	}

	freq := Classify(dates)
	next := freq.Next(latest.Date)

	return Bill{
		ID:              "recurring-" + latest.ID,
		Name:            latest.Description,
		Amount:          latest.Amount,
		Category:        latest.Category.Name,
		CategoryColor:   latest.Category.Color,
		Frequency:       freq,
		NextDueDate:     next,
		LastPaidDate:    latest.Date,
		Merchant:        latest.Merchant,
		Status:          Resolve(now, next),
		OccurrenceCount: len(series),
		AverageAmount:   sum.Div(decimal.NewFromInt(int64(len(series)))),
	}
}

// Detect returns every recurring bill in txs, soonest due first.
func Detect(txs []core.Transaction, now time.Time) []Bill {
	series := Group(txs)
	bills := make([]Bill, 0, len(series))
	for _, s := range series {
		bills = append(bills, Summarize(s, now))
	}
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].NextDueDate.Before(bills[j].NextDueDate)
	})
	return bills
}

// DueWithin keeps bills due no later than days from now, overdue ones included.
func DueWithin(bills []Bill, now time.Time, days int) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if DaysUntil(now, b.NextDueDate) <= days {
			out = append(out, b)
		}
	}
	return out
}

// WithStatus keeps bills whose status is one of statuses.
func WithStatus(bills []Bill, statuses ...Status) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		for _, s := range statuses {
			if b.Status == s {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
