package http

import "net/http"

// handleIncomes pages through income with ?page= (from 1) and ?limit=.
func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := ParseLimit(query)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	page, err := ParseOptionalInt(query, "page")
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	pageNum := 1
	if page != nil {
		pageNum = *page
	}

	result, err := s.deps.Transactions.ListIncome(r.Context(), userID(r), pageNum, limit)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toIncomePageDTO(result)).Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	t, err := req.toDomain(userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}

	saved, err := s.deps.Transactions.CreateIncome(r.Context(), t)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionDTO(saved)).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}

	saved, err := s.deps.Transactions.UpdateIncome(r.Context(), userID(r), r.PathValue("id"), patch)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toTransactionDTO(saved)).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.DeleteIncome(r.Context(), userID(r), r.PathValue("id")); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
