package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whereissam/chainsearch/pkg/classify"
	"go.uber.org/zap"
)

func newTestExecutor() *Executor {
	logger := zap.NewNop()
	return NewExecutor(classify.NewClassifier(logger), NewCircuitBreaker(5, time.Minute, logger), logger)
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor()

	calls := 0
	err := e.Run(context.Background(), RetryConfig{Operation: "op"}, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRunRejectsMissingOperationName(t *testing.T) {
	e := newTestExecutor()

	calls := 0
	err := e.Run(context.Background(), RetryConfig{}, func(context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	rec := classify.AsRecord(err)
	require.NotNil(t, rec)
	assert.Equal(t, classify.CodeInvalidConfiguration, rec.Code)
	assert.Equal(t, 0, calls)
}

func TestRunExhaustsRetriesWithBackoff(t *testing.T) {
	e := newTestExecutor()

	var delays []time.Duration
	calls := 0
	cfg := RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		BackoffMultiplier: 2,
		Operation:         "always_fails",
		OnRetry: func(attempt int, err *classify.Record, delay time.Duration) {
			delays = append(delays, delay)
		},
	}

	err := e.Run(context.Background(), cfg, func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "maxRetries=3 means 4 attempts")
	// Exponential schedule: d, 2d, 4d.
	require.Len(t, delays, 3)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 4*time.Millisecond, delays[2])

	rec := classify.AsRecord(err)
	require.NotNil(t, rec)
	assert.Equal(t, classify.CodeNetworkError, rec.Code)
	assert.Equal(t, 4, rec.Attempts)
}

func TestRunStopsOnNonRetryable(t *testing.T) {
	e := newTestExecutor()

	calls := 0
	cfg := RetryConfig{MaxRetries: 5, InitialDelay: time.Millisecond, Operation: "denied"}
	err := e.Run(context.Background(), cfg, func(context.Context) error {
		calls++
		return classify.NewRecord(classify.CodeAccessDenied, "nope", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable codes fail after one attempt")

	rec := classify.AsRecord(err)
	require.NotNil(t, rec)
	assert.Equal(t, classify.CodeAccessDenied, rec.Code)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRunRecoversMidway(t *testing.T) {
	e := newTestExecutor()

	calls := 0
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffMultiplier: 2, Operation: "flaky"}
	err := e.Run(context.Background(), cfg, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("request timed out")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRunSuccessClearsBreaker(t *testing.T) {
	logger := zap.NewNop()
	cb := NewCircuitBreaker(5, time.Minute, logger)
	e := NewExecutor(classify.NewClassifier(logger), cb, logger)

	cb.RecordFailure("op")
	cb.RecordFailure("op")

	_ = e.Run(context.Background(), RetryConfig{Operation: "op"}, func(context.Context) error {
		return nil
	})

	if cb.Failures("op") != 0 {
		t.Errorf("success should clear the breaker counter, got %d", cb.Failures("op"))
	}
}

func TestRunShortCircuitsWhenOpen(t *testing.T) {
	logger := zap.NewNop()
	cb := NewCircuitBreaker(2, time.Minute, logger)
	e := NewExecutor(classify.NewClassifier(logger), cb, logger)

	cb.RecordFailure("op")
	cb.RecordFailure("op")

	calls := 0
	err := e.Run(context.Background(), RetryConfig{Operation: "op"}, func(context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, 0, calls, "open circuit must reject without invoking the operation")
	assert.True(t, errors.Is(err, ErrCircuitOpen))

	rec := classify.AsRecord(err)
	require.NotNil(t, rec)
	assert.Equal(t, classify.CodeServiceUnavailable, rec.Code)
}

func TestRunStopsWhenCircuitOpensDuringRetries(t *testing.T) {
	logger := zap.NewNop()
	cb := NewCircuitBreaker(2, time.Minute, logger)
	e := NewExecutor(classify.NewClassifier(logger), cb, logger)

	calls := 0
	cfg := RetryConfig{MaxRetries: 10, InitialDelay: time.Millisecond, Operation: "op"}
	err := e.Run(context.Background(), cfg, func(context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls, "retries stop once the breaker trips")
}

func TestRunHonorsContextCancellation(t *testing.T) {
	e := newTestExecutor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Hour, Operation: "op"}
	err := e.Run(ctx, cfg, func(context.Context) error {
		return errors.New("request timed out")
	})

	require.Error(t, err)
	rec := classify.AsRecord(err)
	require.NotNil(t, rec)
	assert.Equal(t, classify.CodeTimeout, rec.Code)
}
