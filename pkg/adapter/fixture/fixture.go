// Package fixture implements the ChainAdapter contract over a fixed
// in-memory asset set. It exists for tests and local demo wiring: every
// operation is deterministic, and failures or latency can be injected per
// operation.
package fixture

import (
	"context"
	"strings"
	"time"

	"github.com/whereissam/chainsearch/pkg/types"
)

// Operation names used for failure injection.
const (
	OpSearchByOwner      = "search_by_owner"
	OpSearchByCollection = "search_by_collection"
	OpSearchByAttributes = "search_by_attributes"
	OpTextSearch         = "text_search"
	OpVerifyAsset        = "verify_asset"
	OpQueryAsset         = "query_asset"
)

// Adapter is a deterministic ChainAdapter backed by fixed assets.
type Adapter struct {
	chain      types.ChainID
	configured bool
	assets     []*types.UnifiedAsset
	failWith   map[string]error
	delay      time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithAssets sets the fixed asset set. Assets are tagged with the adapter's
// chain ID.
func WithAssets(assets ...*types.UnifiedAsset) Option {
	return func(a *Adapter) { a.assets = assets }
}

// WithConfigured overrides the configured probe.
func WithConfigured(configured bool) Option {
	return func(a *Adapter) { a.configured = configured }
}

// WithError makes the named operation fail with err.
func WithError(operation string, err error) Option {
	return func(a *Adapter) { a.failWith[operation] = err }
}

// WithDelay makes every operation wait before responding, to exercise
// timeouts.
func WithDelay(d time.Duration) Option {
	return func(a *Adapter) { a.delay = d }
}

// New creates a fixture adapter for the given chain.
func New(chain types.ChainID, opts ...Option) *Adapter {
	a := &Adapter{
		chain:      chain,
		configured: true,
		failWith:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, asset := range a.assets {
		asset.Chain = chain
	}
	return a
}

// ChainID implements ChainAdapter.
func (a *Adapter) ChainID() types.ChainID { return a.chain }

// IsConfigured implements ChainAdapter.
func (a *Adapter) IsConfigured() bool { return a.configured }

// gate runs the injected delay and failure for one operation.
func (a *Adapter) gate(ctx context.Context, operation string) error {
	if a.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.failWith[operation]
}

// SearchByOwner returns assets whose current owner matches.
func (a *Adapter) SearchByOwner(ctx context.Context, owner string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	if err := a.gate(ctx, OpSearchByOwner); err != nil {
		return nil, err
	}

	var out []*types.UnifiedAsset
	for _, asset := range a.assets {
		if strings.EqualFold(asset.Ownership.Owner, owner) {
			out = append(out, asset)
		}
	}
	return out, nil
}

// SearchByCollection returns assets belonging to the collection ref.
func (a *Adapter) SearchByCollection(ctx context.Context, collectionRef string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	if err := a.gate(ctx, OpSearchByCollection); err != nil {
		return nil, err
	}

	var out []*types.UnifiedAsset
	for _, asset := range a.assets {
		if asset.Collection != nil && strings.EqualFold(asset.Collection.Ref, collectionRef) {
			out = append(out, asset)
		}
	}
	return out, nil
}

// SearchByAttributes returns assets matching every filter.
func (a *Adapter) SearchByAttributes(ctx context.Context, filters []types.AttributeFilter, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	if err := a.gate(ctx, OpSearchByAttributes); err != nil {
		return nil, err
	}

	var out []*types.UnifiedAsset
	for _, asset := range a.assets {
		if matchesAllFilters(asset, filters) {
			out = append(out, asset)
		}
	}
	return out, nil
}

func matchesAllFilters(asset *types.UnifiedAsset, filters []types.AttributeFilter) bool {
	for _, f := range filters {
		if !matchesFilter(asset, f) {
			return false
		}
	}
	return true
}

func matchesFilter(asset *types.UnifiedAsset, f types.AttributeFilter) bool {
	for _, attr := range asset.Metadata.Attributes {
		if !strings.EqualFold(attr.TraitType, f.TraitType) {
			continue
		}
		switch f.Op {
		case types.OpContains:
			if strings.Contains(strings.ToLower(attr.Value), strings.ToLower(f.Value)) {
				return true
			}
		default:
			if strings.EqualFold(attr.Value, f.Value) {
				return true
			}
		}
	}
	return false
}

// TextSearch returns assets whose name, description, attributes or
// collection name contain the query. Ranking happens in the aggregator, not
// here.
func (a *Adapter) TextSearch(ctx context.Context, query string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	if err := a.gate(ctx, OpTextSearch); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var out []*types.UnifiedAsset
	for _, asset := range a.assets {
		if textMatches(asset, q) {
			out = append(out, asset)
		}
	}
	return out, nil
}

func textMatches(asset *types.UnifiedAsset, q string) bool {
	if strings.Contains(strings.ToLower(asset.Metadata.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(asset.Metadata.Description), q) {
		return true
	}
	for _, attr := range asset.Metadata.Attributes {
		if strings.Contains(strings.ToLower(attr.TraitType), q) ||
			strings.Contains(strings.ToLower(attr.Value), q) {
			return true
		}
	}
	if asset.Collection != nil && strings.Contains(strings.ToLower(asset.Collection.Name), q) {
		return true
	}
	return false
}

// VerifyAsset grants access when the user owns a matching asset.
func (a *Adapter) VerifyAsset(ctx context.Context, opts types.VerificationOptions) (*types.VerificationResult, error) {
	if err := a.gate(ctx, OpVerifyAsset); err != nil {
		return nil, err
	}

	result := &types.VerificationResult{
		Chain:      a.chain,
		VerifiedAt: time.Now(),
	}
	for _, asset := range a.assets {
		if !strings.EqualFold(asset.Ownership.Owner, opts.UserAddress) {
			continue
		}
		if opts.AssetID != "" && asset.ID != opts.AssetID {
			continue
		}
		if opts.Contract != "" && !strings.EqualFold(asset.Provenance.Contract, opts.Contract) {
			continue
		}
		result.HasAccess = true
		result.Asset = asset
		break
	}
	return result, nil
}

// QueryAsset looks up one asset by ID or contract and token ID.
func (a *Adapter) QueryAsset(ctx context.Context, opts types.AssetQueryOptions) (*types.AssetQueryResult, error) {
	if err := a.gate(ctx, OpQueryAsset); err != nil {
		return nil, err
	}

	for _, asset := range a.assets {
		if opts.AssetID != "" && asset.ID == opts.AssetID {
			return &types.AssetQueryResult{Found: true, Asset: asset}, nil
		}
		if opts.Contract != "" && opts.TokenID != "" &&
			strings.EqualFold(asset.Provenance.Contract, opts.Contract) &&
			asset.Provenance.TokenID == opts.TokenID {
			return &types.AssetQueryResult{Found: true, Asset: asset}, nil
		}
	}
	return &types.AssetQueryResult{Found: false}, nil
}
