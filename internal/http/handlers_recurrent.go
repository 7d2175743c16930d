package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/recurring"
	"fintrack/internal/services"
)

// handleRecurringBills lists inferred recurring bills, soonest due first.
// status takes a comma separated list ("overdue,due-soon"); dueWithinDays
// keeps bills due within that many days, overdue ones included.
func (s *Server) handleRecurringBills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var q services.BillQuery

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := recurring.ParseStatus(part)
			if !ok {
				UnprocessableEntityError(fmt.Sprintf("unknown status %q", strings.TrimSpace(part))).Write(w)
				return
			}
			q.Statuses = append(q.Statuses, st)
		}
	}

	days, err := ParseOptionalInt(query, "dueWithinDays")
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	q.DueWithinDays = days

	bills, err := s.deps.Bills.Bills(r.Context(), userID(r), q)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toBillDTOs(bills)).Write(w)
}
