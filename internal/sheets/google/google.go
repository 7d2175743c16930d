package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"fintrack/internal/recurring"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// maxTitleLen is the Sheets limit on tab titles.
const maxTitleLen = 100

type Options struct {
	SpreadsheetID   string
	SheetName       string // base tab name; the user id is appended
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu          sync.Mutex
	knownSheets map[string]struct{}
}

var _ ports.BillExporter = (*Client)(nil)

// New creates a Sheets exporter authenticated with a service account. When extra
// client options are given they replace the credential lookup entirely.
func New(ctx context.Context, o Options, extra ...goption.ClientOption) (*Client, error) {
	o.SpreadsheetID = strings.TrimSpace(o.SpreadsheetID)
	if o.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(o.SheetName) == "" {
		o.SheetName = "Recurring Bills"
	}

	opts := extra
	if len(extra) == 0 {
		creds, err := loadCredentials(ctx, o)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", o.SpreadsheetID, "sheet", o.SheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: o.SpreadsheetID,
		sheetBase:     strings.TrimSpace(o.SheetName),
		knownSheets:   make(map[string]struct{}),
	}, nil
}

// loadCredentials prefers inline JSON, then the configured file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, o Options) ([]byte, error) {
	inline := strings.TrimSpace(o.CredentialsJSON)
	file := strings.TrimSpace(o.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportBills writes bills into the user's tab, creating it on first use and
// clearing whatever the previous export left behind.
func (c *Client) ExportBills(ctx context.Context, userID string, bills []recurring.Bill, at time.Time) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return errors.New("missing user id")
	}

	title := sheetTitle(c.sheetBase, userID)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	clearRange := quoteRange(title, "A:K")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := ports.BillRows(bills, at)
	writeRange := quoteRange(title, "A1")
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Exported recurring bills",
		"user_id", userID,
		"sheet", title,
		"bills", len(bills),
		"updated_rows", resp.UpdatedRows)
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	c.mu.Lock()
	_, ok := c.knownSheets[title]
	c.mu.Unlock()
	if ok {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheet.Request{{
				AddSheet: &gsheet.AddSheetRequest{
					Properties: &gsheet.SheetProperties{Title: title},
				},
			}},
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %q: %w", title, err)
		}
		slog.InfoContext(ctx, "Created export sheet", "sheet", title)
	}

	c.mu.Lock()
	c.knownSheets[title] = struct{}{}
	c.mu.Unlock()
	return nil
}

// sheetTitle is "<base> - <userID>", trimmed to the Sheets title limit. Characters
// that Sheets rejects in titles are replaced.
func sheetTitle(base, userID string) string {
	title := strings.TrimSpace(base) + " - " + strings.TrimSpace(userID)
	title = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':':
			return '_'
		}
		return r
	}, title)
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	return title
}

// quoteRange builds an A1 range with the title quoted, doubling embedded quotes.
func quoteRange(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}
