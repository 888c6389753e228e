package classify

import (
	"fmt"
	"time"

	"github.com/whereissam/chainsearch/pkg/types"
)

// Record is a classified failure. It is immutable once constructed; callers
// wrap it but never mutate it.
type Record struct {
	Code       Code                   `json:"code"`
	Chain      types.ChainID          `json:"chain,omitempty"`
	Severity   Severity               `json:"severity"`
	Retryable  bool                   `json:"retryable"`
	Message    string                 `json:"message"`
	Suggestion string                 `json:"suggestion"`
	Timestamp  time.Time              `json:"timestamp"`
	Context    map[string]interface{} `json:"context,omitempty"`

	// Attempts is set by the retry executor on the final record after
	// exhausting retries; zero otherwise.
	Attempts int `json:"attempts,omitempty"`

	cause error
}

// NewRecord builds a Record for a code with derived severity, retryability
// and suggestion. The cause may be nil.
func NewRecord(code Code, message string, cause error) *Record {
	return &Record{
		Code:       code,
		Severity:   SeverityFor(code),
		Retryable:  RetryableFor(code, nil),
		Message:    message,
		Suggestion: SuggestionFor(code),
		Timestamp:  time.Now(),
		cause:      cause,
	}
}

// Error implements the error interface.
func (r *Record) Error() string {
	if r.Chain != "" {
		return fmt.Sprintf("%s (chain %s): %s", r.Code, r.Chain, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Unwrap returns the original backend error, if any.
func (r *Record) Unwrap() error {
	return r.cause
}

// WithChain returns a copy of the record tagged with the originating chain.
func (r *Record) WithChain(chain types.ChainID) *Record {
	c := *r
	c.Chain = chain
	return &c
}

// WithContext returns a copy of the record with one context entry added.
func (r *Record) WithContext(key string, value interface{}) *Record {
	c := *r
	c.Context = make(map[string]interface{}, len(r.Context)+1)
	for k, v := range r.Context {
		c.Context[k] = v
	}
	c.Context[key] = value
	return &c
}

// WithAttempts returns a copy of the record annotated with the attempt count.
func (r *Record) WithAttempts(attempts int) *Record {
	c := *r
	c.Attempts = attempts
	return &c
}

// AsRecord extracts a *Record from an error chain, or nil.
func AsRecord(err error) *Record {
	for err != nil {
		if rec, ok := err.(*Record); ok {
			return rec
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
