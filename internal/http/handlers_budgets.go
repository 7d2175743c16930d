package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	period := core.BudgetPeriod(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("period"))))
	budgets, err := s.deps.Budgets.List(r.Context(), userID(r), period)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toBudgetDTOs(budgets)).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	b, err := req.toDomain(userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}

	created, err := s.deps.Budgets.Create(r.Context(), b)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	progress, err := s.deps.Budgets.Progress(r.Context(), created, time.Now())
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toBudgetDTO(progress)).Write(w)
}
