// Package resilience provides the retry executor and circuit breaker that
// guard every adapter call made by the fan-out layer. Breaker state is the
// only mutable shared state in the core and is safe for concurrent use.
package resilience

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default breaker settings.
const (
	DefaultFailureThreshold = 5
	DefaultTripWindow       = 60 * time.Second
)

// circuitState tracks rolling failures for one operation name.
type circuitState struct {
	failures    int
	lastFailure time.Time
}

// CircuitBreaker keeps a per-operation-name failure counter with a time
// window. An operation is open while its failure count has reached the
// threshold and the most recent failure is still inside the trip window;
// it closes again once the window elapses without a new failure.
type CircuitBreaker struct {
	mu        sync.Mutex
	states    map[string]*circuitState
	threshold int
	window    time.Duration
	logger    *zap.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker. Non-positive threshold or window
// fall back to the defaults.
func NewCircuitBreaker(threshold int, window time.Duration, logger *zap.Logger) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if window <= 0 {
		window = DefaultTripWindow
	}
	return &CircuitBreaker{
		states:    make(map[string]*circuitState),
		threshold: threshold,
		window:    window,
		logger:    logger.Named("circuit"),
		now:       time.Now,
	}
}

// RecordFailure increments the failure counter for the operation.
func (cb *CircuitBreaker) RecordFailure(operation string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, ok := cb.states[operation]
	if !ok {
		state = &circuitState{}
		cb.states[operation] = state
	}
	state.failures++
	state.lastFailure = cb.now()

	if state.failures == cb.threshold {
		cb.logger.Warn("circuit opened",
			zap.String("operation", operation),
			zap.Int("failures", state.failures),
			zap.Duration("window", cb.window),
		)
	}
}

// RecordSuccess resets the failure counter for the operation.
func (cb *CircuitBreaker) RecordSuccess(operation string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if state, ok := cb.states[operation]; ok && state.failures > 0 {
		if state.failures >= cb.threshold {
			cb.logger.Info("circuit closed after success", zap.String("operation", operation))
		}
		state.failures = 0
	}
}

// IsOpen reports whether the operation is currently short-circuited. State
// for one operation never blocks another.
func (cb *CircuitBreaker) IsOpen(operation string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, ok := cb.states[operation]
	if !ok {
		return false
	}
	if state.failures < cb.threshold {
		return false
	}
	if cb.now().Sub(state.lastFailure) >= cb.window {
		// Window elapsed without a new failure; the circuit closes.
		state.failures = 0
		return false
	}
	return true
}

// Failures returns the current failure count for the operation.
func (cb *CircuitBreaker) Failures(operation string) int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if state, ok := cb.states[operation]; ok {
		return state.failures
	}
	return 0
}

// Reset clears all breaker state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.states = make(map[string]*circuitState)
}
