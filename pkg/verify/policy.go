package verify

import (
	"github.com/whereissam/chainsearch/pkg/types"
)

// AccessPolicy decides the overall access verdict of a multi-chain
// verification from the primary outcome and the per-chain corroboration.
type AccessPolicy func(primary *types.VerificationResult, secondary map[types.ChainID]*types.VerificationResult) bool

// PrimaryWins grants access on the primary chain's verdict alone. Secondary
// outcomes stay informational.
func PrimaryWins(primary *types.VerificationResult, _ map[types.ChainID]*types.VerificationResult) bool {
	return primary != nil && primary.HasAccess
}

// RequireConsensus grants access only when the primary grants it and no
// secondary chain that answered disagrees. Secondary chains that failed to
// answer are not counted against consensus.
func RequireConsensus(primary *types.VerificationResult, secondary map[types.ChainID]*types.VerificationResult) bool {
	if primary == nil || !primary.HasAccess {
		return false
	}
	for _, res := range secondary {
		if res == nil || res.Err != nil {
			continue
		}
		if !res.HasAccess {
			return false
		}
	}
	return true
}
