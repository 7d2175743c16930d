package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Dashboard(r.Context(), userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toDashboardDTO(d)).Write(w)
}

// handleReport covers from..to inclusive; either bound may be omitted.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := ParseOptionalDate(query, "from")
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	to, err := ParseOptionalDate(query, "to")
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}

	report, err := s.deps.Dashboard.Report(r.Context(), userID(r), from, to)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toReportDTO(report)).Write(w)
}
