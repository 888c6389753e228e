package search

import (
	"context"
	"fmt"
	"time"

	"github.com/whereissam/chainsearch/pkg/adapter"
	"github.com/whereissam/chainsearch/pkg/classify"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// DefaultPageLimit is used when the criteria carry no limit.
const DefaultPageLimit = 20

// Engine exposes the outbound search operations. Every operation fans out
// to the targeted chains, tolerates partial failure, and merges whatever
// succeeded into one ranked, paginated result.
type Engine struct {
	fanout       *FanOut
	defaultLimit int
	logger       *zap.Logger
}

// NewEngine creates a search engine over the fan-out coordinator.
func NewEngine(fanout *FanOut, defaultLimit int, logger *zap.Logger) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	return &Engine{
		fanout:       fanout,
		defaultLimit: defaultLimit,
		logger:       logger.Named("search"),
	}
}

// FindAssetsByOwner searches every targeted chain for assets owned by the
// address.
func (e *Engine) FindAssetsByOwner(ctx context.Context, owner string, criteria types.SearchCriteria) (*types.SearchResult, error) {
	if owner == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "owner address is required", nil)
	}
	criteria = criteria.Normalize(e.defaultLimit)
	started := time.Now()

	outcomes := e.fanout.Dispatch(ctx, criteria.Chains, OpSearchByOwner, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.SearchByOwner(ctx, owner, criteria)
	})

	return e.finish(outcomes, criteria, started)
}

// FindAssetsByCollection searches for assets in one collection. A non-empty
// chain restricts the search to that chain.
func (e *Engine) FindAssetsByCollection(ctx context.Context, collectionRef string, chain types.ChainID, criteria types.SearchCriteria) (*types.SearchResult, error) {
	if collectionRef == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "collection reference is required", nil)
	}
	if chain != "" {
		criteria.Chains = []types.ChainID{chain}
	}
	criteria = criteria.Normalize(e.defaultLimit)
	started := time.Now()

	outcomes := e.fanout.Dispatch(ctx, criteria.Chains, OpSearchByCollection, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.SearchByCollection(ctx, collectionRef, criteria)
	})

	return e.finish(outcomes, criteria, started)
}

// TextSearch ranks assets across chains by relevance to a free-text query.
func (e *Engine) TextSearch(ctx context.Context, query string, criteria types.SearchCriteria) (*types.SearchResult, error) {
	if query == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "query is required", nil)
	}
	criteria.Query = query
	if criteria.SortBy == "" {
		criteria.SortBy = types.SortRarity
	}
	criteria = criteria.Normalize(e.defaultLimit)
	started := time.Now()

	outcomes := e.fanout.Dispatch(ctx, criteria.Chains, OpTextSearch, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.TextSearch(ctx, query, criteria)
	})

	return e.finish(outcomes, criteria, started)
}

// AdvancedSearch combines the owner, collection, attribute and text
// strategies the criteria enable, deduplicating assets found by more than
// one strategy (first occurrence wins, in strategy order).
func (e *Engine) AdvancedSearch(ctx context.Context, criteria types.SearchCriteria) (*types.SearchResult, error) {
	type strategy struct {
		operation string
		op        Operation
	}

	var strategies []strategy
	if criteria.Owner != "" {
		owner := criteria.Owner
		strategies = append(strategies, strategy{OpSearchByOwner, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
			return a.SearchByOwner(ctx, owner, criteria)
		}})
	}
	for _, ref := range criteria.Collections {
		ref := ref
		strategies = append(strategies, strategy{OpSearchByCollection, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
			return a.SearchByCollection(ctx, ref, criteria)
		}})
	}
	if len(criteria.Attributes) > 0 {
		strategies = append(strategies, strategy{OpSearchByAttributes, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
			return a.SearchByAttributes(ctx, criteria.Attributes, criteria)
		}})
	}
	if criteria.Query != "" {
		query := criteria.Query
		strategies = append(strategies, strategy{OpTextSearch, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
			return a.TextSearch(ctx, query, criteria)
		}})
	}
	if len(strategies) == 0 {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "advanced search needs an owner, collection, attribute or query", nil)
	}

	criteria = criteria.Normalize(e.defaultLimit)
	started := time.Now()

	// One dispatch per strategy; per chain, any succeeding strategy keeps
	// the chain successful and its lists merge with first-wins dedup.
	merged := make(map[types.ChainID]Outcome)
	for _, s := range strategies {
		outcomes := e.fanout.Dispatch(ctx, criteria.Chains, s.operation, s.op)
		for chain, out := range outcomes {
			prev, exists := merged[chain]
			switch {
			case !exists:
				merged[chain] = out
			case out.Err != nil:
				// Keep whatever the chain already has.
			case prev.Err != nil:
				merged[chain] = out
			default:
				prevAssets, _ := prev.Value.([]*types.UnifiedAsset)
				nextAssets, _ := out.Value.([]*types.UnifiedAsset)
				merged[chain] = Outcome{
					Chain: chain,
					Value: mergeAssetLists(prevAssets, nextAssets),
				}
			}
		}
	}

	return e.finish(merged, criteria, started)
}

// QueryAsset looks up one asset on one chain, with retry and circuit
// breaking applied.
func (e *Engine) QueryAsset(ctx context.Context, chain types.ChainID, opts types.AssetQueryOptions) (*types.AssetQueryResult, error) {
	if chain == "" {
		return nil, classify.NewRecord(classify.CodeInvalidCriteria, "chain is required", nil)
	}

	outcomes := e.fanout.Dispatch(ctx, []types.ChainID{chain}, OpQueryAsset, func(ctx context.Context, a adapter.ChainAdapter) (interface{}, error) {
		return a.QueryAsset(ctx, opts)
	})

	out, ok := outcomes[chain]
	if !ok {
		return nil, classify.NewRecord(classify.CodeChainNotSupported, "chain not configured: "+string(chain), nil)
	}
	if out.Err != nil {
		return nil, out.Err
	}
	result, ok := out.Value.(*types.AssetQueryResult)
	if !ok {
		return nil, classify.NewRecord(classify.CodeInternalError, fmt.Sprintf("unexpected payload %T", out.Value), nil)
	}
	return result, nil
}

// finish aggregates outcomes and applies the propagation policy: partial
// failure stays diagnostic, but when every targeted chain failed the whole
// call fails with one classified record.
func (e *Engine) finish(outcomes map[types.ChainID]Outcome, criteria types.SearchCriteria, started time.Time) (*types.SearchResult, error) {
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
		}
	}

	if len(outcomes) > 0 && failed == len(outcomes) {
		rec := classify.NewRecord(classify.CodeSearchFailed, "all targeted chains failed", nil)
		for chain, out := range outcomes {
			rec = rec.WithContext(string(chain), string(out.Err.Code))
		}
		e.logger.Warn("search failed on every chain", zap.Int("chains", len(outcomes)))
		return nil, rec
	}

	result := aggregate(outcomes, criteria, started)

	e.logger.Debug("search complete",
		zap.Int("total", result.Total),
		zap.Int("returned", len(result.Assets)),
		zap.Int("failedChains", failed),
		zap.Duration("duration", result.Stats.Duration),
	)

	return result, nil
}
