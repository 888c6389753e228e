// Package testutil provides shared helpers for tests.
package testutil

import (
	"testing"
	"time"

	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTestLogger creates a logger wired to the test's output.
func NewTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t)
}

// NewTestAsset creates a deterministic asset for the given chain and ID.
func NewTestAsset(chain types.ChainID, id, name, owner string) *types.UnifiedAsset {
	return &types.UnifiedAsset{
		Chain: chain,
		ID:    id,
		Kind:  types.KindNFT,
		Metadata: types.Metadata{
			Name:        name,
			Description: name + " test asset",
		},
		Ownership: types.Ownership{Owner: owner},
		Provenance: types.Provenance{
			CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// NewTestCollection creates a deterministic set of assets in one collection.
func NewTestCollection(chain types.ChainID, ref, owner string, count int) []*types.UnifiedAsset {
	assets := make([]*types.UnifiedAsset, 0, count)
	for i := 0; i < count; i++ {
		a := NewTestAsset(chain, ref+"-"+string(rune('a'+i)), ref, owner)
		a.Collection = &types.CollectionInfo{Ref: ref, Name: ref}
		assets = append(assets, a)
	}
	return assets
}
