// Package adapter defines the capability contract every backend network
// implements, and the registry mapping chain identifiers to adapter
// instances. The core depends only on this contract, never on a backend's
// native SDK.
package adapter

import (
	"context"

	"github.com/whereissam/chainsearch/pkg/types"
)

// ChainAdapter exposes one backend network's search and verification
// operations. All read operations are side-effect-free and must respect the
// caller's context deadline. An adapter that reports IsConfigured() false is
// never dispatched to.
type ChainAdapter interface {
	// ChainID returns the identifier this adapter serves.
	ChainID() types.ChainID

	// IsConfigured reports whether the adapter has a usable backend
	// configuration.
	IsConfigured() bool

	SearchByOwner(ctx context.Context, owner string, criteria types.SearchCriteria) ([]*types.UnifiedAsset, error)
	SearchByCollection(ctx context.Context, collectionRef string, criteria types.SearchCriteria) ([]*types.UnifiedAsset, error)
	SearchByAttributes(ctx context.Context, filters []types.AttributeFilter, criteria types.SearchCriteria) ([]*types.UnifiedAsset, error)
	TextSearch(ctx context.Context, query string, criteria types.SearchCriteria) ([]*types.UnifiedAsset, error)

	VerifyAsset(ctx context.Context, opts types.VerificationOptions) (*types.VerificationResult, error)
	QueryAsset(ctx context.Context, opts types.AssetQueryOptions) (*types.AssetQueryResult, error)
}
