package resilience

import (
	"errors"
)

// Sentinel errors for the resilience package.
var (
	// ErrCircuitOpen is returned when an operation is short-circuited
	// because its breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrInvalidConfig is returned for unusable retry settings.
	ErrInvalidConfig = errors.New("invalid retry configuration")
)
