package backend

import (
	"context"

	"fintrack/internal/sheets"
)

// CleanupFunc releases resources held by an exporter.
type CleanupFunc func() error

// ExporterResult holds the exporter and an optional cleanup function. Exporter
// is a nil interface when export is disabled.
type ExporterResult struct {
	Exporter sheets.BillExporter
	Cleanup  CleanupFunc
}

// Factory creates bill exporters based on configuration.
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (*ExporterResult, error)
}

// Config holds configuration for exporter creation.
type Config struct {
	Type BackendType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType selects where recurring bills are exported.
type BackendType string

const (
	NoBackend     BackendType = "none"
	MemoryBackend BackendType = "memory"
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case NoBackend, MemoryBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
