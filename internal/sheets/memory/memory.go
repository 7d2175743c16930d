// Package memory is an in-process BillExporter used for local runs and tests.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fintrack/internal/recurring"
	ports "fintrack/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	sheets  map[string][][]any
	exports int
}

var _ ports.BillExporter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

// ExportBills replaces the stored rows for userID.
func (s *Store) ExportBills(ctx context.Context, userID string, bills []recurring.Bill, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("missing user id")
	}
	rows := ports.BillRows(bills, at)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[userID] = rows
	s.exports++
	return nil
}

// Rows returns a copy of the last export for userID, header included.
func (s *Store) Rows(userID string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.sheets[userID]
	out := make([][]any, len(src))
	for i, r := range src {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Exports counts successful ExportBills calls.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}
