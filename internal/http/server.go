package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
)

// Ledger is the slice of the ledger service the API exposes.
type Ledger interface {
	CreateAccount(ctx context.Context) (int64, error)
	ProcessTransaction(ctx context.Context, req core.TransactionRequest) (core.Receipt, error)
	GetBalanceSnapshot(ctx context.Context, accountID int64) (core.BalanceSnapshot, error)
	GetRecentTransactions(ctx context.Context, accountID int64, limit int) ([]core.Transaction, error)
}

// Pinger reports whether the backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr           string
	RateLimit      ratelimit.Config
	TrustedProxies []string
	// MaxRecentLimit caps the limit query parameter of the recent listing.
	MaxRecentLimit int
	ReadyTimeout   time.Duration
}

func DefaultConfig(addr string) Config {
	return Config{
		Addr:           addr,
		RateLimit:      ratelimit.DefaultConfig(),
		MaxRecentLimit: 100,
		ReadyTimeout:   2 * time.Second,
	}
}

type Server struct {
	http.Server

	ledger   Ledger
	pinger   Pinger
	logger   *applog.Logger
	events   *applog.StructuredLogger
	validate *validator.Validate
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	config   Config

	shutdownOnce sync.Once
}

func NewServer(config Config, ledger Ledger, pinger Pinger, logger *applog.Logger) (*Server, error) {
	if config.MaxRecentLimit <= 0 {
		config.MaxRecentLimit = 100
	}
	if config.ReadyTimeout <= 0 {
		config.ReadyTimeout = 2 * time.Second
	}

	ips, err := security.NewClientIPExtractor(config.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	httpLogger := logger.WithComponent(applog.ComponentHTTP)
	s := &Server{
		ledger:   ledger,
		pinger:   pinger,
		logger:   httpLogger,
		events:   applog.NewStructuredLogger(httpLogger),
		validate: validator.New(),
		limiter:  ratelimit.NewLimiter(config.RateLimit),
		tracer:   trace.NewMiddleware(httpLogger, ips.ExtractClientIP),
		config:   config,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.handleBalance)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.handleRecentTransactions)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(ips.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded", Code: "rate_limited"})
	})(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = applog.Middleware(httpLogger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Limiter exposes the rate limiter so the process janitor can sweep it.
func (s *Server) Limiter() *ratelimit.Limiter {
	return s.limiter
}

func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
