package sheets

import (
	"context"
	"time"

	"fintrack/internal/recurring"
)

// Ports for outbound adapters.
type (
	// BillExporter publishes a user's current recurring bills to an external
	// spreadsheet. Each export replaces the previous one for that user.
	BillExporter interface {
		ExportBills(ctx context.Context, userID string, bills []recurring.Bill, at time.Time) error
	}
)
