package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on. Metrics and Ready may be nil.
type Deps struct {
	Transactions  *services.TransactionService
	Categories    *services.CategoryService
	Budgets       *services.BudgetService
	Notifications *services.NotificationService
	Bills         *services.RecurringBillService
	Dashboard     *services.DashboardService
	Ready         Pinger
	Metrics       *metrics.Metrics
	Logger        *log.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	}
	s := &Server{
		deps:     deps,
		detector: security.NewDetector(deps.Metrics),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			Observer:          deps.Metrics,
		}),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())

	const user = "/api/users/{userID}"
	mux.HandleFunc("GET "+user+"/recurring", s.handleRecurringBills)
	mux.HandleFunc("GET "+user+"/dashboard", s.handleDashboard)
	mux.HandleFunc("GET "+user+"/reports", s.handleReport)

	mux.HandleFunc("GET "+user+"/transactions", s.handleListTransactions)
	mux.HandleFunc("POST "+user+"/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH "+user+"/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE "+user+"/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET "+user+"/income", s.handleIncomes)
	mux.HandleFunc("POST "+user+"/income", s.handleCreateIncome)
	mux.HandleFunc("PATCH "+user+"/income/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE "+user+"/income/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET "+user+"/categories", s.handleListCategories)
	mux.HandleFunc("POST "+user+"/categories", s.handleCreateCategory)

	mux.HandleFunc("GET "+user+"/budgets", s.handleListBudgets)
	mux.HandleFunc("POST "+user+"/budgets", s.handleCreateBudget)

	mux.HandleFunc("GET "+user+"/notifications", s.handleListNotifications)
	mux.HandleFunc("GET "+user+"/notifications/unread-count", s.handleUnreadCount)
	mux.HandleFunc("POST "+user+"/notifications/read-all", s.handleMarkAllRead)
	mux.HandleFunc("POST "+user+"/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("DELETE "+user+"/notifications/{id}", s.handleDeleteNotification)

	mux.HandleFunc("GET "+user+"/notification-preferences", s.handleGetPreferences)
	mux.HandleFunc("PATCH "+user+"/notification-preferences", s.handlePatchPreferences)
}

// middleware wraps the mux, outermost first: request id, context logger,
// access log and metrics, security headers, suspicious request detection,
// then write rate limiting.
func (s *Server) middleware(h http.Handler) http.Handler {
	observe := func(r *http.Request, status int, d time.Duration) {
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.ObserveHTTP(r.Method, route, status, d)
	}
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	}

	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, onLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.AccessLog(s.detector.ExtractClientIP, observe)(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(s.deps.Logger)(h)
	return trace.Middleware(h)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
