package backend

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
	"fintrack/internal/sheets"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{ExportBackend: "", GoogleSheetName: "Bills"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != NoBackend || cfg.GoogleSheetName != "Bills" {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{ExportBackend: "dropbox"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"none", Config{Type: NoBackend}, false},
		{"memory", Config{Type: MemoryBackend}, false},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "abc"}, false},
		{"unknown", Config{Type: "ftp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateExporter(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil, metrics.New())

	res, err := f.CreateExporter(ctx, Config{Type: NoBackend})
	if err != nil {
		t.Fatal(err)
	}
	if res.Exporter != nil {
		t.Errorf("disabled export returned %T", res.Exporter)
	}

	res, err = f.CreateExporter(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Exporter.(*sheets.GuardedExporter); !ok {
		t.Fatalf("memory exporter is %T, want guarded", res.Exporter)
	}
	bills := []recurring.Bill{{ID: "recurring-1", Name: "Netflix", Amount: core.Money{Cents: 1599}}}
	if err := res.Exporter.ExportBills(ctx, "u1", bills, time.Now()); err != nil {
		t.Errorf("ExportBills: %v", err)
	}

	if _, err := f.CreateExporter(ctx, Config{Type: SheetsBackend}); err == nil {
		t.Error("expected validation error for sheets without spreadsheet id")
	}
}
