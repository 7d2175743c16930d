//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportBills(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	credsJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	credsFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if credsJSON == "" && credsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		SheetName:       "Integration",
		CredentialsJSON: credsJSON,
		CredentialsFile: credsFile,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	userID := "integration-" + time.Now().Format("20060102")
	if err := client.ExportBills(ctx, userID, sampleBills(), time.Now()); err != nil {
		t.Fatalf("first export: %v", err)
	}
	// A second export must overwrite rather than append.
	if err := client.ExportBills(ctx, userID, nil, time.Now()); err != nil {
		t.Fatalf("second export: %v", err)
	}

	resp, err := client.svc.Spreadsheets.Values.Get(spreadsheetID, quoteRange(sheetTitle("Integration", userID), "A:K")).Context(ctx).Do()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(resp.Values) != 1 {
		t.Errorf("expected only the header row after an empty export, got %d rows", len(resp.Values))
	}
}
