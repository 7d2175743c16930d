package recurring

import (
	"math"
	"time"
)

// Status is the urgency of a projected due date relative to now.
type Status int

const (
	Scheduled Status = iota
	Upcoming
	DueSoon
	Overdue
)

var statusNames = [...]string{
	Scheduled: "Scheduled",
	Upcoming:  "Upcoming",
	DueSoon:   "Due Soon",
	Overdue:   "Overdue",
}

func (s Status) String() string {
	if s < Scheduled || s > Overdue {
		return statusNames[Scheduled]
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStatus accepts the display names ("Due Soon") case-insensitively, as well as
// the compact forms used in query strings ("due-soon", "due_soon", "duesoon").
func ParseStatus(s string) (Status, bool) {
	switch normalizeStatus(s) {
	case "scheduled":
		return Scheduled, true
	case "upcoming":
		return Upcoming, true
	case "duesoon":
		return DueSoon, true
	case "overdue":
		return Overdue, true
	}
	return Scheduled, false
}

func normalizeStatus(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c == ' ' || c == '-' || c == '_':
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// DaysUntil is the ceiling of the number of days from now to due; negative when
// due is in the past.
func DaysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / hoursPerDay))
}

// Resolve labels due relative to now.
func Resolve(now, due time.Time) Status {
	days := DaysUntil(now, due)
	switch {
	case days < 0:
		return Overdue
	case days <= 3:
		return DueSoon
	case days <= 7:
		return Upcoming
	default:
		return Scheduled
	}
}
