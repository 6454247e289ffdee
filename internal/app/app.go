// Package app wires configuration into the stores and services shared by
// the daemon, the CLI and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/parsons/internal/attempt"
	"github.com/felixgeelhaar/parsons/internal/config"
	"github.com/felixgeelhaar/parsons/internal/domain"
	"github.com/felixgeelhaar/parsons/internal/llm"
	"github.com/felixgeelhaar/parsons/internal/pairing"
	"github.com/felixgeelhaar/parsons/internal/problem"
	"github.com/felixgeelhaar/parsons/internal/queue"
	"github.com/felixgeelhaar/parsons/internal/storage/local"
	"github.com/felixgeelhaar/parsons/internal/storage/postgres"
	"github.com/felixgeelhaar/parsons/internal/storage/sqlite"
)

// App holds all application dependencies
type App struct {
	Config   *config.LocalConfig
	LLM      *llm.Registry
	Events   *domain.EventDispatcher
	Problems *problem.Service
	Tutor    *pairing.Service

	// Attempts is nil when attempt recording is disabled
	Attempts attempt.Store

	// Broker reports whether attempts flow through RabbitMQ
	Broker bool

	logger   *slog.Logger
	recorder *attempt.Recorder
	consumer *queue.Consumer
	closers  []func() error
}

// Options tune how much of the stack New starts
type Options struct {
	Logger *slog.Logger

	// Consume starts the attempt queue consumer; only the daemon does
	Consume bool
}

// New creates a new application instance with all dependencies wired
func New(ctx context.Context, cfg *config.LocalConfig, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Config: cfg,
		Events: domain.NewEventDispatcher(),
		logger: logger,
	}

	store, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.LLM = NewLLMRegistry(ctx, cfg.LLM, logger)

	a.Problems = problem.NewService(store, problem.Config{
		Generate: problem.GenerateOptions{
			Distractors:    cfg.Generator.Distractors,
			MaxDistractors: cfg.Generator.MaxDistractors,
			Seed:           cfg.Generator.Seed,
		},
		Logger: logger,
	})

	a.Tutor = pairing.NewService(a.LLM, pairing.Config{
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Events:  a.Events,
		Logger:  logger,
	})

	if a.Attempts != nil {
		if err := a.startRecording(ctx, opts.Consume); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// openStores opens the problem store and, when events are enabled, the
// attempt store
func (a *App) openStores(ctx context.Context) (problem.Store, error) {
	cfg := a.Config.Store
	events := a.Config.Events.Enabled

	switch cfg.Backend {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if events {
			a.Attempts = postgres.NewAttemptStore(pool)
		}
		return postgres.NewProblemStore(pool), nil

	case config.StoreSQLite:
		db, err := sqlite.OpenMigrated(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if events {
			a.Attempts = sqlite.NewAttemptStore(db)
		}
		return sqlite.NewProblemStore(db), nil

	default:
		store, err := local.NewProblemStore(cfg.ProblemsPath, cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("open problem file: %w", err)
		}
		if events {
			db, err := sqlite.OpenMigrated(ctx, cfg.SQLitePath)
			if err != nil {
				return nil, fmt.Errorf("open attempt database: %w", err)
			}
			a.closers = append(a.closers, db.Close)
			a.Attempts = sqlite.NewAttemptStore(db)
		}
		return store, nil
	}
}

// startRecording attaches the attempt recorder. With a RabbitMQ URL the
// recorder publishes to the broker; an unreachable broker degrades to
// direct writes.
func (a *App) startRecording(ctx context.Context, consume bool) error {
	var publisher attempt.Publisher
	if url := a.Config.Events.RabbitMQURL; url != "" {
		conn, err := queue.NewConnection(url, a.logger)
		if err != nil {
			a.logger.Warn("rabbitmq unavailable, recording attempts directly", "error", err)
		} else {
			a.closers = append(a.closers, conn.Close)
			publisher = queue.NewProducer(conn)
			a.Broker = true

			if consume {
				a.consumer = queue.NewConsumer(conn, queue.StoreHandler(a.Attempts), queue.ConsumerConfig{
					Workers: a.Config.Events.Workers,
				})
				if err := a.consumer.Start(ctx); err != nil {
					return fmt.Errorf("start attempt consumer: %w", err)
				}
			}
		}
	}

	a.recorder = attempt.NewRecorder(a.Attempts, publisher, attempt.RecorderConfig{Logger: a.logger})
	a.recorder.Attach(a.Events)
	return nil
}

// NewLLMRegistry registers every enabled provider that has credentials,
// in config.ProviderOrder. An empty registry means all replies come from
// the deterministic fallback.
func NewLLMRegistry(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) *llm.Registry {
	if logger == nil {
		logger = slog.Default()
	}
	registry := llm.NewRegistry()

	for _, name := range config.ProviderOrder {
		pc, ok := cfg.Providers[name]
		if !ok || !pc.Enabled {
			continue
		}
		provider, err := newProvider(ctx, name, pc)
		if err != nil {
			logger.Debug("LLM provider not configured", "name", name, "error", err)
			continue
		}
		if cfg.Resilience.Enabled {
			provider = llm.NewResilientProvider(provider, resilientConfig(cfg.Resilience, logger))
		}
		registry.Register(name, provider)
		logger.Info("registered LLM provider", "name", name, "model", pc.Model)
	}

	if cfg.DefaultProvider != "" && cfg.DefaultProvider != "auto" {
		if err := registry.SetDefault(cfg.DefaultProvider); err != nil {
			logger.Warn("default LLM provider unavailable, using first registered",
				"name", cfg.DefaultProvider, "error", err)
		}
	}
	return registry
}

func newProvider(ctx context.Context, name string, pc *config.ProviderConfig) (llm.Provider, error) {
	switch name {
	case "claude":
		return llm.NewClaudeProvider(llm.ClaudeConfig{APIKey: pc.APIKey, BaseURL: pc.URL, Model: pc.Model})
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: pc.APIKey, BaseURL: pc.URL, Model: pc.Model})
	case "gemini":
		return llm.NewGeminiProvider(ctx, llm.GeminiConfig{APIKey: pc.APIKey, BaseURL: pc.URL, Model: pc.Model})
	case "ollama":
		return llm.NewOllamaProvider(llm.OllamaConfig{BaseURL: pc.URL, Model: pc.Model}), nil
	}
	return nil, fmt.Errorf("%w: %s", llm.ErrProviderNotFound, name)
}

func resilientConfig(rc config.ResilienceConfig, logger *slog.Logger) llm.ResilientConfig {
	cfg := llm.DefaultResilientConfig()
	if rc.MaxAttempts > 0 {
		cfg.MaxAttempts = rc.MaxAttempts
	}
	if rc.FailureThreshold > 0 {
		cfg.FailureThreshold = rc.FailureThreshold
	}
	if rc.MaxConcurrent > 0 {
		cfg.MaxConcurrent = rc.MaxConcurrent
	}
	if rc.RatePerSecond > 0 {
		cfg.RatePerSecond = rc.RatePerSecond
	}
	cfg.Logger = logger
	return cfg
}

// Close drains the recorder, stops the consumer and closes stores and
// connections in reverse order of opening
func (a *App) Close() error {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.consumer != nil {
		a.consumer.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	for _, name := range a.providerNames() {
		if p, err := a.LLM.Get(name); err == nil {
			if c, ok := p.(interface{ Close() error }); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (a *App) providerNames() []string {
	if a.LLM == nil {
		return nil
	}
	return a.LLM.List()
}
