// Package verify coordinates asset ownership verification for token-gated
// access, on a single chain or corroborated across several.
package verify

import (
	"context"
	"fmt"

	"github.com/whereissam/chainsearch/pkg/adapter"
	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/search"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// Coordinator runs verification requests through the fan-out layer so they
// inherit the same retry, classification and circuit-breaking behavior as
// searches.
type Coordinator struct {
	fanout *search.FanOut
	policy AccessPolicy
	logger *zap.Logger
}

// NewCoordinator creates a verification coordinator. A nil policy defaults
// to PrimaryWins.
func NewCoordinator(fanout *search.FanOut, policy AccessPolicy, logger *zap.Logger) *Coordinator {
	if policy == nil {
		policy = PrimaryWins
	}
	return &Coordinator{
		fanout: fanout,
		policy: policy,
		logger: logger.Named("verify"),
	}
}

// Verify checks whether the user holds the required asset on one chain.
func (c *Coordinator) Verify(ctx context.Context, chain types.ChainID, opts types.VerificationOptions) (*types.VerificationResult, error) {
	if chain == "" {
		chain = opts.Chain
	}
	if chain == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "verification needs a chain", nil)
	}
	if opts.UserAddress == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "verification needs a user address", nil)
	}

	outcomes := c.fanout.Dispatch(ctx, []types.ChainID{chain}, search.OpVerifyAsset, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.VerifyAsset(ctx, opts)
	})

	out, ok := outcomes[chain]
	if !ok {
		return nil, classify.NewRecord(classify.CodeChainNotSupported, "chain not configured: "+string(chain), nil)
	}
	if out.Err != nil {
		return nil, out.Err
	}
	result, ok := out.Value.(*types.VerificationResult)
	if !ok {
		return nil, classify.NewRecord(classify.CodeInternalError, fmt.Sprintf("unexpected payload %T", out.Value), nil)
	}

	c.logger.Debug("verified asset access",
		zap.String("chain", string(chain)),
		zap.Bool("hasAccess", result.HasAccess),
	)
	return result, nil
}

// VerifyMultiChain verifies on every requested chain concurrently. The
// first chain is the primary and must answer; the rest corroborate, and a
// secondary failure is recorded on its result without failing the call. The
// coordinator's policy folds the outcomes into one verdict.
func (c *Coordinator) VerifyMultiChain(ctx context.Context, chains []types.ChainID, opts types.VerificationOptions) (*types.MultiChainVerificationResult, error) {
	if len(chains) == 0 {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "multi-chain verification needs at least one chain", nil)
	}
	if opts.UserAddress == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "verification needs a user address", nil)
	}
	primary := chains[0]

	outcomes := c.fanout.Dispatch(ctx, chains, search.OpVerifyAsset, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.VerifyAsset(ctx, opts)
	})

	primaryOut, ok := outcomes[primary]
	if !ok {
		return nil, classify.NewRecord(classify.CodeChainNotSupported, "primary chain not configured: "+string(primary), nil)
	}
	if primaryOut.Err != nil {
		return nil, primaryOut.Err
	}
	primaryResult, ok := primaryOut.Value.(*types.VerificationResult)
	if !ok {
		return nil, classify.NewRecord(classify.CodeInternalError, fmt.Sprintf("unexpected payload %T", primaryOut.Value), nil)
	}

	secondary := make(map[types.ChainID]*types.VerificationResult)
	for chain, out := range outcomes {
		if chain == primary {
			continue
		}
		if out.Err != nil {
			secondary[chain] = &types.VerificationResult{
				Chain: chain,
				Err:   out.Err,
				Failure: &types.ChainDiagnostic{
					Chain:      chain,
					Code:       string(out.Err.Code),
					Message:    out.Err.Message,
					Suggestion: out.Err.Suggestion,
				},
			}
			continue
		}
		if res, ok := out.Value.(*types.VerificationResult); ok {
			secondary[chain] = res
		}
	}
	if len(secondary) == 0 {
		secondary = nil
	}

	result := &types.MultiChainVerificationResult{
		Primary:   primaryResult,
		Secondary: secondary,
		HasAccess: c.policy(primaryResult, secondary),
	}

	c.logger.Debug("multi-chain verification complete",
		zap.String("primary", string(primary)),
		zap.Int("secondary", len(secondary)),
		zap.Bool("hasAccess", result.HasAccess),
	)
	return result, nil
}
