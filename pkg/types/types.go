// Package types defines the value objects shared by the search and
// verification core. Everything in this package is treated as immutable
// once constructed; nothing here carries synchronization.
package types

import (
	"time"
)

// ChainID identifies one backend network behind an adapter.
type ChainID string

// Well-known chain identifiers. Adapters may register under any ID;
// these constants exist for the chains the service ships adapters for.
const (
	ChainEthereum ChainID = "ethereum"
	ChainPolygon  ChainID = "polygon"
	ChainSui      ChainID = "sui"
	ChainSolana   ChainID = "solana"
)

// AssetKind classifies a normalized asset record.
type AssetKind string

const (
	KindNFT         AssetKind = "nft"
	KindCollectible AssetKind = "collectible"
	KindDomain      AssetKind = "domain"
	KindToken       AssetKind = "token"
)

// Attribute is one normalized metadata trait of an asset.
type Attribute struct {
	TraitType string `json:"traitType"`
	Value     string `json:"value"`
}

// Transfer is one entry of an asset's ownership history.
type Transfer struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	TxRef     string    `json:"txRef,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ownership holds the current owner and optional transfer history.
type Ownership struct {
	Owner     string     `json:"owner"`
	Transfers []Transfer `json:"transfers,omitempty"`
}

// CollectionInfo describes the collection an asset belongs to.
type CollectionInfo struct {
	Ref      string `json:"ref"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// MarketInfo carries pricing signals for an asset, denominated in the
// chain's native unit.
type MarketInfo struct {
	LastSalePrice  float64 `json:"lastSalePrice,omitempty"`
	EstimatedValue float64 `json:"estimatedValue,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	Listed         bool    `json:"listed"`
}

// Provenance holds the technical origin of an asset on its chain.
type Provenance struct {
	Contract     string     `json:"contract,omitempty"`
	TokenID      string     `json:"tokenId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	TxRef        string     `json:"txRef,omitempty"`
}

// Metadata is the normalized descriptive payload of an asset.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// UnifiedAsset is one chain-tagged normalized asset record. An asset never
// mixes data from two chains; GlobalID is unique within one response.
type UnifiedAsset struct {
	Chain      ChainID         `json:"chain"`
	ID         string          `json:"id"`
	Kind       AssetKind       `json:"kind"`
	Metadata   Metadata        `json:"metadata"`
	Ownership  Ownership       `json:"ownership"`
	Collection *CollectionInfo `json:"collection,omitempty"`
	Market     *MarketInfo     `json:"market,omitempty"`
	Provenance Provenance      `json:"provenance"`

	// Relevance is an ephemeral ranking signal computed during text
	// search. It is never persisted.
	Relevance float64 `json:"relevance,omitempty"`
}

// GlobalID returns the chain-qualified identity of the asset.
func (a *UnifiedAsset) GlobalID() string {
	return string(a.Chain) + ":" + a.ID
}

// PageInfo describes the pagination window of a SearchResult.
type PageInfo struct {
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// ChainDiagnostic reports one failed chain of a fan-out, already classified.
type ChainDiagnostic struct {
	Chain      ChainID `json:"chain"`
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// SearchStats holds aggregate statistics computed over the filtered,
// pre-pagination asset set.
type SearchStats struct {
	ChainDistribution map[ChainID]int   `json:"chainDistribution"`
	KindDistribution  map[AssetKind]int `json:"kindDistribution"`
	AverageRelevance  float64           `json:"averageRelevance"`
	Duration          time.Duration     `json:"duration"`
	FailedChains      []ChainDiagnostic `json:"failedChains,omitempty"`
}

// SearchResult is the unified, paginated response of one search operation.
type SearchResult struct {
	Assets   []*UnifiedAsset `json:"assets"`
	Total    int             `json:"total"`
	Page     PageInfo        `json:"page"`
	Stats    SearchStats     `json:"stats"`
	Criteria SearchCriteria  `json:"criteria"`
}

// VerificationOptions describes one ownership/asset verification request.
type VerificationOptions struct {
	UserAddress string  `json:"userAddress"`
	AssetID     string  `json:"assetId,omitempty"`
	Contract    string  `json:"contract,omitempty"`
	Chain       ChainID `json:"chain,omitempty"`
	// GatingRule names the access rule to evaluate, e.g. "holds-any" or
	// "holds-asset". Interpretation is adapter-specific.
	GatingRule string `json:"gatingRule,omitempty"`
}

// VerificationResult is the outcome of verifying one asset on one chain.
type VerificationResult struct {
	HasAccess  bool          `json:"hasAccess"`
	Chain      ChainID       `json:"chain"`
	Asset      *UnifiedAsset `json:"asset,omitempty"`
	VerifiedAt time.Time     `json:"verifiedAt"`

	// Failure is the serialized diagnostic of a failed chain, so wire
	// consumers can tell an outage apart from a plain denial. Err keeps
	// the original error for in-process callers.
	Failure *ChainDiagnostic `json:"failure,omitempty"`
	Err     error            `json:"-"`
}

// MultiChainVerificationResult wraps one primary verification outcome plus
// informational per-chain corroboration.
type MultiChainVerificationResult struct {
	Primary   *VerificationResult             `json:"primary"`
	Secondary map[ChainID]*VerificationResult `json:"secondary,omitempty"`
	HasAccess bool                            `json:"hasAccess"`
}

// AssetQueryOptions identifies one asset to look up on a chain.
type AssetQueryOptions struct {
	AssetID  string  `json:"assetId"`
	Contract string  `json:"contract,omitempty"`
	TokenID  string  `json:"tokenId,omitempty"`
	Chain    ChainID `json:"chain,omitempty"`
}

// AssetQueryResult is the outcome of a single-asset lookup.
type AssetQueryResult struct {
	Found bool          `json:"found"`
	Asset *UnifiedAsset `json:"asset,omitempty"`
}
