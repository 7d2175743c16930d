package recurring

import (
	"math"
	"sort"
	"time"
)

// Frequency is the periodicity inferred for a series of payments.
type Frequency int

const (
	Unknown Frequency = iota
	Weekly
	Monthly
	Quarterly
	Yearly
	Irregular
)

const hoursPerDay = 24

var frequencyNames = [...]string{
	Unknown:   "Unknown",
	Weekly:    "Weekly",
	Monthly:   "Monthly",
	Quarterly: "Quarterly",
	Yearly:    "Yearly",
	Irregular: "Irregular",
}

func (f Frequency) String() string {
	if f < Unknown || f > Irregular {
		return frequencyNames[Unknown]
	}
	return frequencyNames[f]
}

func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Next projects the occurrence after last. Irregular and Unknown fall back to one
// month. Month arithmetic normalizes overflow (Jan 31 + 1 month lands in March).
func (f Frequency) Next(last time.Time) time.Time {
	switch f {
	case Weekly:
		return last.AddDate(0, 0, 7)
	case Monthly:
		return last.AddDate(0, 1, 0)
	case Quarterly:
		return last.AddDate(0, 3, 0)
	case Yearly:
		return last.AddDate(1, 0, 0)
	default:
		return last.AddDate(0, 1, 0)
	}
}

// Classify maps the mean gap in whole days between consecutive dates to a
// Frequency. Thresholds are inclusive upper bounds checked in order.
func Classify(dates []time.Time) Frequency {
	if len(dates) < 2 {
		return Unknown
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var total float64
	for i := 1; i < len(sorted); i++ {
		total += math.Round(sorted[i].Sub(sorted[i-1]).Hours() / hoursPerDay)
	}
	avg := total / float64(len(sorted)-1)

	switch {
	case avg <= 10:
		return Weekly
	case avg <= 35:
		return Monthly
	case avg <= 100:
		return Quarterly
	case avg <= 400:
		return Yearly
	default:
		return Irregular
	}
}
