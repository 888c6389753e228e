package classify

import (
	"context"
	"errors"
	"strings"

	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// Context carries the call-site metadata used during classification.
type Context struct {
	Chain     types.ChainID
	Operation string
	// RetryableOverride forces retryability for codes that allow it.
	RetryableOverride *bool
}

// Classifier turns raw backend failures into taxonomy Records. It is
// deterministic and never fails: unrecognized errors map to internal-error.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger.Named("classifier")}
}

// signature is one message-content match rule.
type signature struct {
	needle string
	code   Code
}

// networkSignatures are chain-agnostic and checked before any chain table.
var networkSignatures = []signature{
	{"context deadline exceeded", CodeTimeout},
	{"timeout", CodeTimeout},
	{"timed out", CodeTimeout},
	{"rate limit", CodeRateLimited},
	{"too many requests", CodeRateLimited},
	{"429", CodeRateLimited},
	{"service unavailable", CodeServiceUnavailable},
	{"503", CodeServiceUnavailable},
	{"bad gateway", CodeServiceUnavailable},
	{"connection refused", CodeNetworkError},
	{"connection reset", CodeNetworkError},
	{"no such host", CodeNetworkError},
	{"network", CodeNetworkError},
	{"eof", CodeNetworkError},
}

// chainSignatures recognize each backend's characteristic failure phrases.
var chainSignatures = map[types.ChainID][]signature{
	types.ChainEthereum: evmSignatures,
	types.ChainPolygon:  evmSignatures,
	types.ChainSui: {
		{"object not found", CodeAssetNotFound},
		{"object does not exist", CodeAssetNotFound},
		{"package not found", CodeContractNotFound},
		{"insufficient gas", CodeInsufficientBalance},
		{"insufficient coin balance", CodeInsufficientBalance},
		{"invalid sui address", CodeInvalidIdentifier},
		{"not the owner", CodeNotOwned},
		{"gas budget", CodeFeeEstimationFailed},
	},
	types.ChainSolana: {
		{"account not found", CodeAssetNotFound},
		{"could not find account", CodeAssetNotFound},
		{"insufficient lamports", CodeInsufficientBalance},
		{"insufficient funds", CodeInsufficientBalance},
		{"invalid public key", CodeInvalidIdentifier},
		{"blockhash not found", CodeBlockNotFound},
		{"token owner mismatch", CodeNotOwned},
	},
}

var evmSignatures = []signature{
	{"insufficient funds", CodeInsufficientBalance},
	{"insufficient balance", CodeInsufficientBalance},
	{"execution reverted", CodeOperationFailed},
	{"gas required exceeds", CodeFeeEstimationFailed},
	{"cannot estimate gas", CodeFeeEstimationFailed},
	{"invalid address", CodeInvalidIdentifier},
	{"invalid hex", CodeInvalidIdentifier},
	{"contract not found", CodeContractNotFound},
	{"no contract code", CodeContractNotFound},
	{"token does not exist", CodeAssetNotFound},
	{"not found", CodeAssetNotFound},
	{"caller is not the owner", CodeNotOwned},
	{"nonce too low", CodeOperationFailed},
}

// Classify maps a raw failure plus call-site metadata into a Record. If the
// error already is a Record it is returned tagged with the chain, not
// re-wrapped.
func (c *Classifier) Classify(err error, cctx Context) *Record {
	if err == nil {
		return nil
	}

	if rec := AsRecord(err); rec != nil {
		if rec.Chain == "" && cctx.Chain != "" {
			return rec.WithChain(cctx.Chain)
		}
		return rec
	}

	code := c.codeFor(err, cctx.Chain)

	rec := NewRecord(code, err.Error(), err)
	rec.Chain = cctx.Chain
	rec.Retryable = RetryableFor(code, cctx.RetryableOverride)
	if cctx.Operation != "" {
		rec.Context = map[string]interface{}{"operation": cctx.Operation}
	}

	c.logger.Debug("classified error",
		zap.String("code", string(code)),
		zap.String("chain", string(cctx.Chain)),
		zap.String("operation", cctx.Operation),
		zap.Error(err),
	)

	return rec
}

// codeFor resolves the taxonomy code for a raw error.
func (c *Classifier) codeFor(err error, chain types.ChainID) Code {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}

	msg := strings.ToLower(err.Error())

	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig.needle) {
			return sig.code
		}
	}

	if table, ok := chainSignatures[chain]; ok {
		for _, sig := range table {
			if strings.Contains(msg, sig.needle) {
				return sig.code
			}
		}
	}

	return CodeInternalError
}
