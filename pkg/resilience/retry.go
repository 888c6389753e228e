package resilience

import (
	"context"
	"time"

	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// Default retry settings.
const (
	DefaultMaxRetries        = 3
	DefaultInitialDelay      = 500 * time.Millisecond
	DefaultBackoffMultiplier = 2.0
)

// RetryConfig configures one Run call.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the first try, so a
	// value of 3 allows 4 attempts in total.
	MaxRetries int

	// InitialDelay is the sleep before the first retry.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after every failed attempt.
	BackoffMultiplier float64

	// Operation names the breaker key, conventionally
	// "{operation}:{chain}" so a broken backend never opens the circuit
	// for its siblings.
	Operation string

	// Chain tags classification of failures from this call.
	Chain types.ChainID

	// RetryableOverride forces retryability for codes that allow it.
	RetryableOverride *bool

	// OnRetry is invoked before each backoff sleep.
	OnRetry func(attempt int, err *classify.Record, delay time.Duration)
}

// Executor re-invokes operations with exponential backoff, consulting the
// classifier to decide whether a failure is worth retrying and the breaker
// to short-circuit operations that keep failing.
type Executor struct {
	classifier *classify.Classifier
	breaker    *CircuitBreaker
	logger     *zap.Logger
}

// NewExecutor creates a retry executor.
func NewExecutor(classifier *classify.Classifier, breaker *CircuitBreaker, logger *zap.Logger) *Executor {
	return &Executor{
		classifier: classifier,
		breaker:    breaker,
		logger:     logger.Named("retry"),
	}
}

// Run invokes op until it succeeds, a non-retryable failure occurs, the
// breaker opens, or the attempt budget is exhausted. The returned error is
// always a *classify.Record annotated with the attempt count.
func (e *Executor) Run(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	if cfg.Operation == "" {
		rec := classify.NewRecord(classify.CodeInvalidConfiguration, "retry config needs an operation name", ErrInvalidConfig)
		return rec.WithChain(cfg.Chain)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = DefaultBackoffMultiplier
	}

	if e.breaker.IsOpen(cfg.Operation) {
		rec := classify.NewRecord(classify.CodeServiceUnavailable, "operation short-circuited: "+cfg.Operation, ErrCircuitOpen)
		return rec.WithChain(cfg.Chain)
	}

	delay := cfg.InitialDelay
	var lastRec *classify.Record

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			e.breaker.RecordSuccess(cfg.Operation)
			return nil
		}

		rec := e.classifier.Classify(err, classify.Context{
			Chain:             cfg.Chain,
			Operation:         cfg.Operation,
			RetryableOverride: cfg.RetryableOverride,
		})
		lastRec = rec
		e.breaker.RecordFailure(cfg.Operation)

		if !rec.Retryable {
			e.logger.Debug("not retrying",
				zap.String("operation", cfg.Operation),
				zap.String("code", string(rec.Code)),
				zap.Int("attempt", attempt+1),
			)
			return rec.WithAttempts(attempt + 1)
		}
		if e.breaker.IsOpen(cfg.Operation) {
			e.logger.Warn("circuit opened during retries", zap.String("operation", cfg.Operation))
			return rec.WithAttempts(attempt + 1)
		}
		if attempt == cfg.MaxRetries {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, rec, delay)
		}
		e.logger.Debug("retrying after backoff",
			zap.String("operation", cfg.Operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			rec := e.classifier.Classify(ctx.Err(), classify.Context{Chain: cfg.Chain, Operation: cfg.Operation})
			return rec.WithAttempts(attempt + 1)
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
	}

	e.logger.Warn("retries exhausted",
		zap.String("operation", cfg.Operation),
		zap.Int("attempts", cfg.MaxRetries+1),
		zap.String("code", string(lastRec.Code)),
	)
	return lastRec.WithAttempts(cfg.MaxRetries + 1)
}
