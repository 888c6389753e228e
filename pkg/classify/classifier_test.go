package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

func TestClassifyNetworkSignatures(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"connection refused", errors.New("dial tcp 127.0.0.1:8545: connection refused"), CodeNetworkError},
		{"deadline", context.DeadlineExceeded, CodeTimeout},
		{"timeout text", errors.New("request timed out after 5s"), CodeTimeout},
		{"rate limit", errors.New("HTTP 429: rate limit exceeded"), CodeRateLimited},
		{"unavailable", errors.New("503 service unavailable"), CodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(tt.err, Context{Chain: types.ChainEthereum})
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestClassifyChainSignatures(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	tests := []struct {
		name  string
		chain types.ChainID
		err   error
		want  Code
	}{
		{"evm insufficient funds", types.ChainEthereum, errors.New("insufficient funds for gas * price + value"), CodeInsufficientBalance},
		{"evm revert", types.ChainEthereum, errors.New("execution reverted: ERC721: invalid token"), CodeOperationFailed},
		{"evm bad address", types.ChainPolygon, errors.New("invalid address checksum"), CodeInvalidIdentifier},
		{"sui missing object", types.ChainSui, errors.New("object not found: 0xabc"), CodeAssetNotFound},
		{"sui gas", types.ChainSui, errors.New("insufficient gas for transaction"), CodeInsufficientBalance},
		{"solana account", types.ChainSolana, errors.New("could not find account: 9xQe"), CodeAssetNotFound},
		{"solana ownership", types.ChainSolana, errors.New("token owner mismatch"), CodeNotOwned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.Classify(tt.err, Context{Chain: tt.chain})
			require.NotNil(t, rec)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.chain, rec.Chain)
		})
	}
}

func TestClassifyUnknownDefaultsToInternal(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	rec := c.Classify(errors.New("something entirely novel"), Context{})
	if rec.Code != CodeInternalError {
		t.Errorf("expected internal-error, got %s", rec.Code)
	}
	if rec.Severity != SeverityCritical {
		t.Errorf("expected critical severity, got %s", rec.Severity)
	}
}

func TestClassifyNilError(t *testing.T) {
	c := NewClassifier(zap.NewNop())
	if rec := c.Classify(nil, Context{}); rec != nil {
		t.Errorf("expected nil record for nil error, got %v", rec)
	}
}

func TestClassifyPassesThroughRecords(t *testing.T) {
	c := NewClassifier(zap.NewNop())

	orig := NewRecord(CodeAccessDenied, "gate check failed", nil)
	rec := c.Classify(orig, Context{Chain: types.ChainSui})

	assert.Equal(t, CodeAccessDenied, rec.Code)
	assert.Equal(t, types.ChainSui, rec.Chain)

	// A wrapped record is unwrapped, not re-classified.
	wrapped := fmt.Errorf("verify: %w", orig)
	rec = c.Classify(wrapped, Context{})
	assert.Equal(t, CodeAccessDenied, rec.Code)
}

func TestRecordWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	c := NewClassifier(zap.NewNop())

	rec := c.Classify(cause, Context{Operation: "text_search:ethereum"})
	if !errors.Is(rec, cause) {
		t.Error("expected record to wrap the original error")
	}
	if rec.Context["operation"] != "text_search:ethereum" {
		t.Errorf("expected operation context, got %v", rec.Context)
	}
}

func TestRecordCopiesNeverMutate(t *testing.T) {
	rec := NewRecord(CodeTimeout, "slow backend", nil)

	tagged := rec.WithChain(types.ChainSolana)
	withCtx := tagged.WithContext("requestId", "abc")

	assert.Empty(t, rec.Chain)
	assert.Nil(t, rec.Context)
	assert.Equal(t, types.ChainSolana, withCtx.Chain)
	assert.Equal(t, "abc", withCtx.Context["requestId"])
}
