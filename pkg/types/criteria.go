package types

import (
	"time"
)

// SortField selects the ranking key of a search.
type SortField string

const (
	SortCreatedDate  SortField = "created_date"
	SortLastActivity SortField = "last_activity"
	SortPrice        SortField = "price"
	SortName         SortField = "name"
	// SortRarity orders by the text-search relevance score.
	SortRarity SortField = "rarity"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CompareOp is the comparison operator of an attribute filter.
type CompareOp string

const (
	OpEquals   CompareOp = "eq"
	OpContains CompareOp = "contains"
	OpGreater  CompareOp = "gt"
	OpLess     CompareOp = "lt"
)

// AttributeFilter matches assets by one metadata trait.
type AttributeFilter struct {
	TraitType string    `json:"traitType"`
	Value     string    `json:"value"`
	Op        CompareOp `json:"op,omitempty"`
}

// PriceRange bounds last-sale or estimated value. A zero Max means unbounded.
type PriceRange struct {
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
}

// TimeRange bounds asset creation time. Zero values mean unbounded.
type TimeRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// SearchCriteria describes one logical search request. It is immutable per
// request and passed by value through the pipeline.
type SearchCriteria struct {
	// Chains to target. Empty means all configured chains.
	Chains []ChainID `json:"chains,omitempty"`

	Owner       string            `json:"owner,omitempty"`
	Collections []string          `json:"collections,omitempty"`
	Kinds       []AssetKind       `json:"kinds,omitempty"`
	Attributes  []AttributeFilter `json:"attributes,omitempty"`
	Query       string            `json:"query,omitempty"`

	Price        *PriceRange `json:"price,omitempty"`
	Created      *TimeRange  `json:"created,omitempty"`
	VerifiedOnly bool        `json:"verifiedOnly,omitempty"`

	SortBy    SortField `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// TargetsChain reports whether the criteria allow dispatching to the given
// chain. An empty chain list targets everything.
func (c SearchCriteria) TargetsChain(chain ChainID) bool {
	if len(c.Chains) == 0 {
		return true
	}
	for _, id := range c.Chains {
		if id == chain {
			return true
		}
	}
	return false
}

// Normalize applies defaults to the pagination and sort fields and returns
// the adjusted copy. The original criteria are not modified.
func (c SearchCriteria) Normalize(defaultLimit int) SearchCriteria {
	if c.Limit <= 0 {
		c.Limit = defaultLimit
	}
	if c.Offset < 0 {
		c.Offset = 0
	}
	if c.SortOrder != SortAsc && c.SortOrder != SortDesc {
		c.SortOrder = SortDesc
	}
	if c.SortBy == "" {
		c.SortBy = SortCreatedDate
	}
	return c
}
