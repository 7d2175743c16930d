package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/metrics"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewFactory(logger *slog.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:  logger,
		metrics: m,
	}
}

// CreateExporter builds the configured exporter behind a circuit breaker.
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case NoBackend:
		f.logger.Info("Bill export disabled")
		return &ExporterResult{}, nil
	case MemoryBackend:
		return f.guarded(config.Type, memory.New()), nil
	case SheetsBackend:
		return f.createSheetsExporter(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*ExporterResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return f.guarded(config.Type, cli), nil
}

func (f *DefaultFactory) guarded(t BackendType, inner sheets.BillExporter) *ExporterResult {
	f.logger.Info("Initialized bill exporter", "backend", t.String())
	return &ExporterResult{
		Exporter: sheets.NewGuardedExporter(inner, t.String(), f.metrics),
	}
}
