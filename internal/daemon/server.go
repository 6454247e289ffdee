package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/config"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/pairing"
)

// ProblemService is the problem collection as used by the handlers
type ProblemService interface {
	List(ctx context.Context) ([]*domain.Problem, error)
	Get(ctx context.Context, id string) (*domain.Problem, error)
	Generate(ctx context.Context, source string) (*domain.Problem, error)
	Delete(ctx context.Context, id string) error
}

// StatsReader reports attempt statistics for a problem
type StatsReader interface {
	Stats(ctx context.Context, problemID string) (*attempt.Stats, error)
}

// Server represents the Parsons daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	problems  ProblemService
	tutor     pairing.TutorService
	stats     StatsReader
	providers []string
	broker    bool
	version   string
	startedAt time.Time

	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config   *config.LocalConfig
	Problems ProblemService
	Tutor    pairing.TutorService

	// Stats is nil when attempt recording is disabled
	Stats StatsReader

	// Providers lists registered LLM providers for status reporting
	Providers []string
	Broker    bool
	Version   string
	Logger    *slog.Logger
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Problems == nil || cfg.Tutor == nil {
		return nil, fmt.Errorf("problem and tutor services are required")
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		problems:  cfg.Problems,
		tutor:     cfg.Tutor,
		stats:     cfg.Stats,
		providers: cfg.Providers,
		broker:    cfg.Broker,
		version:   cfg.Version,
		startedAt: time.Now(),
		logger:    cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.version == "" {
		s.version = "dev"
	}
	if n := cfg.Config.Daemon.RateLimitPerMinute; n > 0 {
		s.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     n,
			Burst:    n,
			Interval: time.Minute,
		})
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// Health & status
	s.router.HandleFunc("GET /api/health", s.handleHealth)
	s.router.HandleFunc("GET /api/status", s.handleStatus)

	// Problems
	s.router.HandleFunc("GET /api/problems", s.handleListProblems)
	s.router.HandleFunc("POST /api/problems/generate", s.handleGenerateProblem)
	s.router.HandleFunc("GET /api/problems/{id}", s.handleGetProblem)
	s.router.HandleFunc("DELETE /api/problems/{id}", s.handleDeleteProblem)
	s.router.HandleFunc("GET /api/problems/{id}/stats", s.handleProblemStats)

	// Solutions
	s.router.HandleFunc("POST /api/solutions/validate", s.handleValidate)

	// Feedback
	s.router.HandleFunc("POST /api/feedback", s.limited(s.handleFeedback))
	s.router.HandleFunc("POST /api/feedback/chat", s.limited(s.handleChat))
	s.router.HandleFunc("GET /api/feedback/health", s.handleFeedbackHealth)
}

func (s *Server) limited(h http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return h
	}
	return rateLimited(s.limiter, s.logger, h)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return chain(s.router,
		recoverer(s.logger),
		withCorrelationID,
		requestLogger(s.logger),
		cors(s.cfg.Daemon.CORSOrigins),
	)
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting parsons daemon",
		"addr", s.server.Addr,
		"llm_providers", s.providers,
		"store", s.cfg.Store.Backend,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")
	if s.limiter != nil {
		if err := s.limiter.Close(); err != nil {
			s.logger.Warn("failed to close rate limiter", "error", err)
		}
	}
	return s.server.Shutdown(ctx)
}
