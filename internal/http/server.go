package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// Server exposes the ledger, scheduler and projector over a JSON API.
type Server struct {
	http.Server

	ledger    *services.Ledger
	scheduler *services.Scheduler
	projector *services.Projector

	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	// Month overviews are the only aggregate expensive enough to
	// cache. Entries are invalidated on every ledger write that
	// touches the cached month.
	overviewCache *cache.LRU[services.MonthOverview]
	sweeper       *cache.Sweeper

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.Ledger, scheduler *services.Scheduler, projector *services.Projector) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:        ledger,
		scheduler:     scheduler,
		projector:     projector,
		rateLimiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:        trace.NewMiddleware(clientIP),
		overviewCache: cache.New[services.MonthOverview](100, 5*time.Minute),
		sweeper:       cache.NewSweeper(10 * time.Minute),
	}

	s.sweeper.Track(s.overviewCache)
	s.sweeper.Start()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /accounts/{id}/transactions", s.handleListAccountTransactions)
	mux.HandleFunc("GET /accounts/{id}/recurring-payments", s.handleListAccountRecurring)
	mux.HandleFunc("GET /accounts/{id}/projection", s.handleProjection)

	mux.HandleFunc("GET /debts", s.handleListDebts)
	mux.HandleFunc("POST /debts", s.handleCreateDebt)
	mux.HandleFunc("GET /debts/{id}", s.handleGetDebt)
	mux.HandleFunc("PUT /debts/{id}", s.handleUpdateDebt)
	mux.HandleFunc("DELETE /debts/{id}", s.handleDeleteDebt)
	mux.HandleFunc("POST /debts/{id}/payments", s.handlePayDebt)

	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /transfers", s.handleTransfer)

	mux.HandleFunc("GET /recurring-payments", s.handleListRecurring)
	mux.HandleFunc("POST /recurring-payments", s.handleCreateRecurring)
	mux.HandleFunc("GET /recurring-payments/{id}", s.handleGetRecurring)
	mux.HandleFunc("PUT /recurring-payments/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /recurring-payments/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /recurring-payments/{id}/settle", s.handleSettleRecurring)
	mux.HandleFunc("POST /recurring-payments/{id}/skip", s.handleSkipRecurring)
	mux.HandleFunc("POST /recurring-payments/{id}/rollback", s.handleRollbackRecurring)

	mux.HandleFunc("GET /overview", s.handleMonthOverview)

	// Trace everything, rate limit writes only.
	handler := s.tracer.Middleware(s.withWriteLimit(mux))
	s.Server.Handler = handler

	return s
}

// withWriteLimit applies rate limiting to mutating requests and sets
// baseline response headers on everything.
func (s *Server) withWriteLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.rateLimiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines,
// logging a final traffic summary.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		metrics := s.tracer.GetMetrics()
		slog.InfoContext(ctx, "HTTP server shutting down",
			"total_requests", metrics.TotalRequests,
			"avg_response_us", metrics.AverageResponseTime,
			"tracked_clients", s.rateLimiter.ActiveClients())

		s.sweeper.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// clientIP extracts the client address, considering proxies.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// invalidateOverview drops the cached overview for the month the
// given date falls in.
func (s *Server) invalidateOverview(date time.Time) {
	if date.IsZero() {
		return
	}
	s.overviewCache.Drop(overviewKey(date.Year(), int(date.Month())))
}

func overviewKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
