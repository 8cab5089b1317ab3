// Package api exposes backtests, stored results and saved strategies over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	POST /backtest/run          body: strategy parameters (JSON), ?strategy_id=, ?job=
//	POST /backtest/montecarlo   same body, simulation forced on
//	GET  /results               ?limit=
//	GET  /results/{id}
//	GET  /results/{id}/report   Markdown
//	GET  /results/{id}/trades   CSV
//	GET  /results/{id}/history  CSV
//	POST /strategies
//	GET  /strategies
//	GET  /strategies/{id}
//	GET  /ws/progress           ?job=
//
// Backtest routes answer 429 when Options.BacktestRate is exceeded.
package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"leap-portfolio-lab/internal/observability"
	"leap-portfolio-lab/internal/simulation"
	"leap-portfolio-lab/internal/storage"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	runner         *simulation.Runner
	strategies     storage.StrategyStore
	hub            *ProgressHub
	metrics        *observability.Metrics
	metricsHandler http.Handler
	logger         *log.Logger
	limiter        *rate.Limiter
	now            func() time.Time
	newID          func() string
}

// Options contains configuration for creating a Server.
type Options struct {
	Runner         *simulation.Runner
	Strategies     storage.StrategyStore
	Metrics        *observability.Metrics // defaults to observability.DefaultMetrics
	MetricsHandler http.Handler           // defaults to observability.Handler()
	Logger         *log.Logger            // optional
	Now            func() time.Time       // defaults to time.Now
	NewID          func() string          // defaults to uuid.NewString

	// BacktestRate limits POST /backtest/* to this many requests per second
	// across all clients. Zero disables the limit.
	BacktestRate  rate.Limit
	BacktestBurst int // defaults to 1
}

// New creates a Server.
func New(opts Options) *Server {
	m := opts.Metrics
	if m == nil {
		m = observability.DefaultMetrics
	}
	mh := opts.MetricsHandler
	if mh == nil {
		mh = observability.Handler()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	var limiter *rate.Limiter
	if opts.BacktestRate > 0 {
		burst := opts.BacktestBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.BacktestRate, burst)
	}
	return &Server{
		runner:         opts.Runner,
		strategies:     opts.Strategies,
		hub:            NewProgressHub(m, opts.Logger),
		metrics:        m,
		metricsHandler: mh,
		logger:         opts.Logger,
		limiter:        limiter,
		now:            now,
		newID:          newID,
	}
}

// Hub returns the progress hub that backtest handlers publish to.
func (s *Server) Hub() *ProgressHub {
	return s.hub
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.instrument)

	// Health and metrics
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", s.metricsHandler).Methods("GET")

	// Backtests
	r.HandleFunc("/backtest/run", s.throttle(s.handleRun)).Methods("POST")
	r.HandleFunc("/backtest/montecarlo", s.throttle(s.handleMonteCarlo)).Methods("POST")

	// Stored results
	r.HandleFunc("/results", s.handleListResults).Methods("GET")
	r.HandleFunc("/results/{id}", s.handleGetResult).Methods("GET")
	r.HandleFunc("/results/{id}/report", s.handleResultReport).Methods("GET")
	r.HandleFunc("/results/{id}/trades", s.handleResultTrades).Methods("GET")
	r.HandleFunc("/results/{id}/history", s.handleResultHistory).Methods("GET")

	// Saved strategies
	r.HandleFunc("/strategies", s.handleCreateStrategy).Methods("POST")
	r.HandleFunc("/strategies", s.handleListStrategies).Methods("GET")
	r.HandleFunc("/strategies/{id}", s.handleGetStrategy).Methods("GET")

	// Progress stream
	r.Handle("/ws/progress", s.hub).Methods("GET")

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument records request counts and latency by route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RecordHTTPRequest(route, rec.status, time.Since(started))
	})
}

// throttle rejects requests with 429 once the backtest limiter is exhausted.
func (s *Server) throttle(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many backtest requests"})
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status. It forwards Hijack so
// websocket upgrades work behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// log prints if logger is configured.
func (s *Server) log(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
