package search

import (
	"sort"
	"strings"
	"time"

	"github.com/whereissam/chainsearch/pkg/types"
)

// Relevance weights for text search. Scores are additive across matches.
const (
	scoreNameContains       = 100
	scoreNameExactBonus     = 50
	scoreDescription        = 30
	scorePerAttribute       = 20
	scoreCollectionContains = 40
)

// aggregate merges per-chain fan-out outcomes into one ranked, paginated
// SearchResult. Successful chains contribute assets; failed chains become
// diagnostics with a zero entry in the chain distribution.
func aggregate(outcomes map[types.ChainID]Outcome, criteria types.SearchCriteria, started time.Time) *types.SearchResult {
	assets := flatten(outcomes)
	assets = applyFilters(assets, criteria)

	if criteria.Query != "" {
		for _, a := range assets {
			a.Relevance = relevanceScore(a, criteria.Query)
		}
	}

	sortAssets(assets, criteria.SortBy, criteria.SortOrder)

	total := len(assets)
	page := paginate(assets, criteria.Limit, criteria.Offset)

	result := &types.SearchResult{
		Assets: page,
		Total:  total,
		Page: types.PageInfo{
			Limit:       criteria.Limit,
			Offset:      criteria.Offset,
			HasNext:     criteria.Offset+criteria.Limit < total,
			HasPrevious: criteria.Offset > 0,
		},
		Stats:    computeStats(outcomes, assets, started),
		Criteria: criteria,
	}
	return result
}

// flatten merges all successful per-chain lists, deduplicating by global ID
// with first occurrence winning. Chains are visited in sorted order so
// repeated calls with identical inputs produce identical output. Assets are
// shallow-copied so scoring never writes through pointers the adapters own.
func flatten(outcomes map[types.ChainID]Outcome) []*types.UnifiedAsset {
	chains := make([]types.ChainID, 0, len(outcomes))
	for chain := range outcomes {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	seen := make(map[string]bool)
	var out []*types.UnifiedAsset
	for _, chain := range chains {
		o := outcomes[chain]
		if o.Err != nil {
			continue
		}
		assets, ok := o.Value.([]*types.UnifiedAsset)
		if !ok {
			continue
		}
		for _, a := range assets {
			id := a.GlobalID()
			if seen[id] {
				continue
			}
			seen[id] = true
			dup := *a
			out = append(out, &dup)
		}
	}
	return out
}

// mergeAssetLists deduplicates assets combined from several search
// strategies, first occurrence winning.
func mergeAssetLists(lists ...[]*types.UnifiedAsset) []*types.UnifiedAsset {
	seen := make(map[string]bool)
	var out []*types.UnifiedAsset
	for _, list := range lists {
		for _, a := range list {
			id := a.GlobalID()
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, a)
		}
	}
	return out
}

// applyFilters enforces the global criteria filters: price range, creation
// time range, asset-kind allow-list, and verified-only.
func applyFilters(assets []*types.UnifiedAsset, criteria types.SearchCriteria) []*types.UnifiedAsset {
	out := assets[:0:0]
	for _, a := range assets {
		if !matchesPrice(a, criteria.Price) {
			continue
		}
		if !matchesCreated(a, criteria.Created) {
			continue
		}
		if !matchesKind(a, criteria.Kinds) {
			continue
		}
		if criteria.VerifiedOnly && (a.Collection == nil || !a.Collection.Verified) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesPrice(a *types.UnifiedAsset, pr *types.PriceRange) bool {
	if pr == nil {
		return true
	}
	if a.Market == nil {
		return false
	}
	value := a.Market.LastSalePrice
	if value == 0 {
		value = a.Market.EstimatedValue
	}
	if value < pr.Min {
		return false
	}
	if pr.Max > 0 && value > pr.Max {
		return false
	}
	return true
}

func matchesCreated(a *types.UnifiedAsset, tr *types.TimeRange) bool {
	if tr == nil {
		return true
	}
	created := a.Provenance.CreatedAt
	if !tr.From.IsZero() && created.Before(tr.From) {
		return false
	}
	if !tr.To.IsZero() && created.After(tr.To) {
		return false
	}
	return true
}

func matchesKind(a *types.UnifiedAsset, kinds []types.AssetKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// relevanceScore computes the fixed-weight text relevance of one asset.
func relevanceScore(a *types.UnifiedAsset, query string) float64 {
	q := strings.ToLower(query)
	score := 0.0

	name := strings.ToLower(a.Metadata.Name)
	if strings.Contains(name, q) {
		score += scoreNameContains
		if name == q {
			score += scoreNameExactBonus
		}
	}
	if strings.Contains(strings.ToLower(a.Metadata.Description), q) {
		score += scoreDescription
	}
	for _, attr := range a.Metadata.Attributes {
		if strings.Contains(strings.ToLower(attr.TraitType), q) ||
			strings.Contains(strings.ToLower(attr.Value), q) {
			score += scorePerAttribute
		}
	}
	if a.Collection != nil && strings.Contains(strings.ToLower(a.Collection.Name), q) {
		score += scoreCollectionContains
	}
	return score
}

// sortAssets orders assets by the requested field and direction with a
// stable tie-break on global ID, keeping pagination deterministic.
func sortAssets(assets []*types.UnifiedAsset, field types.SortField, order types.SortOrder) {
	less := lessFunc(field)
	desc := order == types.SortDesc

	sort.SliceStable(assets, func(i, j int) bool {
		a, b := assets[i], assets[j]
		if desc {
			a, b = b, a
		}
		switch cmp := less(a, b); cmp {
		case -1:
			return true
		case 1:
			return false
		default:
			return assets[i].GlobalID() < assets[j].GlobalID()
		}
	})
}

// lessFunc returns a three-way comparator for the sort field.
func lessFunc(field types.SortField) func(a, b *types.UnifiedAsset) int {
	switch field {
	case types.SortName:
		return func(a, b *types.UnifiedAsset) int {
			return strings.Compare(strings.ToLower(a.Metadata.Name), strings.ToLower(b.Metadata.Name))
		}
	case types.SortPrice:
		return func(a, b *types.UnifiedAsset) int {
			return compareFloat(assetPrice(a), assetPrice(b))
		}
	case types.SortRarity:
		return func(a, b *types.UnifiedAsset) int {
			return compareFloat(a.Relevance, b.Relevance)
		}
	case types.SortLastActivity:
		return func(a, b *types.UnifiedAsset) int {
			return compareTime(lastActivity(a), lastActivity(b))
		}
	default: // created_date
		return func(a, b *types.UnifiedAsset) int {
			return compareTime(a.Provenance.CreatedAt, b.Provenance.CreatedAt)
		}
	}
}

func assetPrice(a *types.UnifiedAsset) float64 {
	if a.Market == nil {
		return 0
	}
	if a.Market.LastSalePrice > 0 {
		return a.Market.LastSalePrice
	}
	return a.Market.EstimatedValue
}

func lastActivity(a *types.UnifiedAsset) time.Time {
	if a.Provenance.LastActivity != nil {
		return *a.Provenance.LastActivity
	}
	return a.Provenance.CreatedAt
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// paginate slices [offset, offset+limit).
func paginate(assets []*types.UnifiedAsset, limit, offset int) []*types.UnifiedAsset {
	if offset >= len(assets) {
		return []*types.UnifiedAsset{}
	}
	end := offset + limit
	if end > len(assets) {
		end = len(assets)
	}
	return assets[offset:end]
}

// computeStats derives distributions over the filtered, pre-pagination set
// plus per-chain failure diagnostics. Every dispatched chain appears in the
// chain distribution, failed chains with a zero count.
func computeStats(outcomes map[types.ChainID]Outcome, filtered []*types.UnifiedAsset, started time.Time) types.SearchStats {
	stats := types.SearchStats{
		ChainDistribution: make(map[types.ChainID]int, len(outcomes)),
		KindDistribution:  make(map[types.AssetKind]int),
		Duration:          time.Since(started),
	}

	chains := make([]types.ChainID, 0, len(outcomes))
	for chain := range outcomes {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	for _, chain := range chains {
		stats.ChainDistribution[chain] = 0
		if o := outcomes[chain]; o.Err != nil {
			stats.FailedChains = append(stats.FailedChains, types.ChainDiagnostic{
				Chain:      chain,
				Code:       string(o.Err.Code),
				Message:    o.Err.Message,
				Suggestion: o.Err.Suggestion,
			})
		}
	}

	var relevanceSum float64
	for _, a := range filtered {
		stats.ChainDistribution[a.Chain]++
		stats.KindDistribution[a.Kind]++
		relevanceSum += a.Relevance
	}
	if len(filtered) > 0 {
		stats.AverageRelevance = relevanceSum / float64(len(filtered))
	}

	return stats
}
