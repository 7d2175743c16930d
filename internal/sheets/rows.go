package sheets

import (
	"time"

	"fintrack/internal/recurring"
)

const dateLayout = "2006-01-02"

// Header is the first row of every export.
var Header = []any{
	"Name", "Amount", "Average", "Frequency", "Next Due", "Last Paid",
	"Status", "Occurrences", "Category", "Merchant", "Exported At",
}

// BillRows renders bills as spreadsheet rows, header first. Amounts are written as
// numbers so the sheet can sum them; dates use ISO calendar form.
func BillRows(bills []recurring.Bill, at time.Time) [][]any {
	rows := make([][]any, 0, len(bills)+1)
	rows = append(rows, Header)
	exported := at.UTC().Format(time.RFC3339)
	for _, b := range bills {
		rows = append(rows, []any{
			b.Name,
			b.Amount.Float(),
			b.AverageAmount.Round(2).InexactFloat64(),
			b.Frequency.String(),
			b.NextDueDate.Format(dateLayout),
			b.LastPaidDate.Format(dateLayout),
			b.Status.String(),
			b.OccurrenceCount,
			b.Category,
			b.Merchant,
			exported,
		})
	}
	return rows
}
