package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the API exposes.
type Dependencies struct {
	Ledger     *services.LedgerService
	Budgets    *services.BudgetService
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Goals      *services.GoalService
	Alerts     *services.AlertService
	Tokens     TokenResolver
	Readiness  Pinger
}

type Options struct {
	RequestsPerMinute int
	RateLimitBurst    int
	Logger            *log.Logger
}

type Server struct {
	http.Server

	ledger     *services.LedgerService
	budgets    *services.BudgetService
	accounts   *services.AccountService
	categories *services.CategoryService
	goals      *services.GoalService
	alerts     *services.AlertService
	tokens     TokenResolver
	readiness  Pinger

	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		ledger:     deps.Ledger,
		budgets:    deps.Budgets,
		accounts:   deps.Accounts,
		categories: deps.Categories,
		goals:      deps.Goals,
		alerts:     deps.Alerts,
		tokens:     deps.Tokens,
		readiness:  deps.Readiness,
		logger:     logger,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute, Burst: opts.RateLimitBurst}),
		detector:   detector,
		tracer:     trace.NewMiddleware(detector.ExtractClientIP, logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/accounts", s.handleListAccounts)
	api.HandleFunc("POST /api/v1/accounts", s.handleCreateAccount)
	api.HandleFunc("GET /api/v1/accounts/{id}", s.handleGetAccount)
	api.HandleFunc("PATCH /api/v1/accounts/{id}", s.handlePatchAccount)
	api.HandleFunc("DELETE /api/v1/accounts/{id}", s.handleDeleteAccount)

	api.HandleFunc("GET /api/v1/categories", s.handleListCategories)
	api.HandleFunc("POST /api/v1/categories", s.handleCreateCategory)
	api.HandleFunc("PATCH /api/v1/categories/{id}", s.handlePatchCategory)
	api.HandleFunc("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	api.HandleFunc("GET /api/v1/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/v1/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/v1/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/v1/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)

	api.HandleFunc("GET /api/v1/budgets", s.handleListBudgets)
	api.HandleFunc("POST /api/v1/budgets", s.handleCreateBudget)
	api.HandleFunc("GET /api/v1/budgets/summary", s.handleBudgetSummary)
	api.HandleFunc("GET /api/v1/budgets/{id}", s.handleGetBudget)
	api.HandleFunc("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	api.HandleFunc("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)

	api.HandleFunc("GET /api/v1/goals", s.handleListGoals)
	api.HandleFunc("POST /api/v1/goals", s.handleCreateGoal)
	api.HandleFunc("GET /api/v1/goals/{id}", s.handleGetGoal)
	api.HandleFunc("PUT /api/v1/goals/{id}", s.handleUpdateGoal)
	api.HandleFunc("DELETE /api/v1/goals/{id}", s.handleDeleteGoal)

	api.HandleFunc("GET /api/v1/alerts", s.handleListAlerts)

	mux.Handle("/api/", requireAuth(s.tokens, api))

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

// middleware wraps h, outermost first: trace, security headers, probe
// detection, rate limiting, request-scoped logger.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(h)
	h = s.detectProbes(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

func (s *Server) detectProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldRequestID, trace.GetRequestID(r.Context()),
				log.FieldClientIP, s.detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
