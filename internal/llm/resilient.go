package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRateLimited is returned when the local rate limiter rejects a call
var ErrRateLimited = errors.New("rate limit exceeded for provider")

// ResilientConfig selects which fortify patterns guard a provider. Zero
// numeric fields fall back to DefaultResilientConfig values.
type ResilientConfig struct {
	EnableCircuitBreaker bool
	EnableRetry          bool
	EnableBulkhead       bool
	EnableRateLimit      bool

	// MaxAttempts counts the first call
	MaxAttempts int
	RetryDelay  time.Duration

	// FailureThreshold consecutive failures open the circuit for OpenTimeout
	FailureThreshold int
	OpenTimeout      time.Duration

	MaxConcurrent int
	RatePerSecond int

	Logger *slog.Logger
}

// DefaultResilientConfig returns the defaults used for tutor replies. A
// reply that cannot be produced quickly is replaced by the fallback
// responder, so retries are short.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxAttempts:          2,
		RetryDelay:           500 * time.Millisecond,
		FailureThreshold:     3,
		OpenTimeout:          30 * time.Second,
		MaxConcurrent:        5,
		RatePerSecond:        2,
	}
}

// withDefaults fills unset numeric fields
func (c ResilientConfig) withDefaults() ResilientConfig {
	d := DefaultResilientConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = d.RatePerSecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

type generateFunc func(ctx context.Context) (*Response, error)

// ResilientProvider guards a Provider with fortify patterns. Calls pass the
// rate limiter first, then circuit breaker, retry and bulkhead from the
// outside in.
type ResilientProvider struct {
	provider Provider

	circuitBreaker circuitbreaker.CircuitBreaker[*Response]
	retrier        retry.Retry[*Response]
	bulkhead       bulkhead.Bulkhead[*Response]
	rateLimit      ratelimit.RateLimiter
}

// NewResilientProvider wraps provider with the patterns enabled in cfg
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	cfg = cfg.withDefaults()
	rp := &ResilientProvider{provider: provider}
	name := provider.Name()

	if cfg.EnableCircuitBreaker {
		threshold := cfg.FailureThreshold
		rp.circuitBreaker = circuitbreaker.New[*Response](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(c circuitbreaker.Counts) bool {
				return int(c.ConsecutiveFailures) >= threshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				cfg.Logger.Warn("circuit breaker state change",
					"provider", name, "from", from.String(), "to", to.String())
			},
		})
	}
	if cfg.EnableRetry {
		rp.retrier = retry.New[*Response](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.RetryDelay,
			MaxDelay:      5 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableHTTPError,
		})
	}
	if cfg.EnableBulkhead {
		rp.bulkhead = bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
			MaxQueue:      cfg.MaxConcurrent * 2,
			QueueTimeout:  10 * time.Second,
		})
	}
	if cfg.EnableRateLimit {
		rp.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RatePerSecond,
			Burst:    cfg.RatePerSecond * 3,
			Interval: time.Second,
		})
	}
	return rp
}

func (p *ResilientProvider) Name() string { return p.provider.Name() }

func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.rateLimit != nil && !p.rateLimit.Allow(ctx, p.Name()) {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, p.Name())
	}

	call := generateFunc(func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	})
	if p.bulkhead != nil {
		inner := call
		call = func(ctx context.Context) (*Response, error) {
			return p.bulkhead.Execute(ctx, inner)
		}
	}
	if p.retrier != nil {
		inner := call
		call = func(ctx context.Context) (*Response, error) {
			return p.retrier.Do(ctx, inner)
		}
	}
	if p.circuitBreaker != nil {
		inner := call
		call = func(ctx context.Context) (*Response, error) {
			return p.circuitBreaker.Execute(ctx, inner)
		}
	}
	return call(ctx)
}

// Close stops the rate limiter's background cleanup
func (p *ResilientProvider) Close() error {
	if p.rateLimit == nil {
		return nil
	}
	return p.rateLimit.Close()
}

var statusInText = regexp.MustCompile(`status (\d{3})\b`)

// isRetryableHTTPError retries throttling and upstream 5xx failures only
func isRetryableHTTPError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch extractStatusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractStatusCode returns the upstream HTTP status of a provider error.
// Untyped errors are scanned for a "status NNN" fragment.
func extractStatusCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	if m := statusInText.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}
