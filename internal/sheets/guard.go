package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/metrics"
	"fintrack/internal/recurring"
	"fintrack/internal/resilience"

	"github.com/sony/gobreaker"
)

// ErrExportUnavailable is returned while the breaker is open.
var ErrExportUnavailable = errors.New("export backend unavailable")

// GuardedExporter wraps an exporter with a circuit breaker so that a failing
// spreadsheet backend does not slow down every event or reminder sweep.
type GuardedExporter struct {
	inner   BillExporter
	backend string
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

var _ BillExporter = (*GuardedExporter)(nil)

func NewGuardedExporter(inner BillExporter, backend string, m *metrics.Metrics) *GuardedExporter {
	return &GuardedExporter{
		inner:   inner,
		backend: backend,
		metrics: m,
		breaker: resilience.NewCircuitBreaker(backend+"-export", resilience.BreakerSettings{
			MaxFailures:   3,
			OpenTimeout:   time.Minute,
			OnStateChange: m.SetBreakerState,
		}),
	}
}

func (g *GuardedExporter) ExportBills(ctx context.Context, userID string, bills []recurring.Bill, at time.Time) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.inner.ExportBills(ctx, userID, bills, at)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		slog.WarnContext(ctx, "Skipping bill export, breaker open", "backend", g.backend, "user_id", userID)
		return fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	if err != nil {
		return fmt.Errorf("export bills to %s: %w", g.backend, err)
	}
	g.metrics.AddExportedBills(g.backend, len(bills))
	return nil
}
