package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := ParseLimit(query)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	filter := storage.TransactionFilter{
		Type:       core.TransactionType(strings.ToUpper(strings.TrimSpace(query.Get("type")))),
		CategoryID: sanitizeInput(query.Get("categoryId")),
		Limit:      limit,
	}

	txs, err := s.deps.Transactions.List(r.Context(), userID(r), filter)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toTransactionDTOs(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	t, err := req.toDomain(userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}

	saved, err := s.deps.Transactions.Create(r.Context(), t)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionDTO(saved)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	saved, err := s.deps.Transactions.Update(r.Context(), userID(r), r.PathValue("id"), patch)
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(toTransactionDTO(saved)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.List(r.Context(), userID(r))
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		d := toCategoryDTO(c.Category)
		count := c.TransactionCount
		d.TransactionCount = &count
		out = append(out, d)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	c, err := s.deps.Categories.Create(r.Context(), core.Category{
		UserID:      userID(r),
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		Color:       strings.TrimSpace(req.Color),
		Icon:        sanitizeInput(req.Icon),
	})
	if err != nil {
		ErrorFromDomain(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toCategoryDTO(c)).Write(w)
}
