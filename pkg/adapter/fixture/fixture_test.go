package fixture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/whereissam/chainsearch/pkg/types"
)

func testAssets() []*types.UnifiedAsset {
	return []*types.UnifiedAsset{
		{
			ID:   "nft-1",
			Kind: types.KindNFT,
			Metadata: types.Metadata{
				Name:        "Azure Dragon",
				Description: "A dragon of the eastern sky",
				Attributes:  []types.Attribute{{TraitType: "element", Value: "water"}},
			},
			Ownership:  types.Ownership{Owner: "0xAlice"},
			Collection: &types.CollectionInfo{Ref: "dragons", Name: "Dragon Pack", Verified: true},
			Provenance: types.Provenance{Contract: "0xC0ffee", TokenID: "1"},
		},
		{
			ID:   "nft-2",
			Kind: types.KindNFT,
			Metadata: types.Metadata{
				Name:       "Crimson Fox",
				Attributes: []types.Attribute{{TraitType: "element", Value: "fire"}},
			},
			Ownership:  types.Ownership{Owner: "0xBob"},
			Collection: &types.CollectionInfo{Ref: "foxes", Name: "Fox Den"},
			Provenance: types.Provenance{Contract: "0xC0ffee", TokenID: "2"},
		},
	}
}

func TestFixtureTagsAssetsWithChain(t *testing.T) {
	a := New(types.ChainSui, WithAssets(testAssets()...))

	got, err := a.SearchByOwner(context.Background(), "0xalice", types.SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(got))
	}
	if got[0].Chain != types.ChainSui {
		t.Errorf("expected chain sui, got %s", got[0].Chain)
	}
}

func TestFixtureSearchByCollection(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...))

	got, err := a.SearchByCollection(context.Background(), "dragons", types.SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "nft-1" {
		t.Fatalf("expected only nft-1, got %v", got)
	}
}

func TestFixtureSearchByAttributes(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...))

	got, err := a.SearchByAttributes(context.Background(),
		[]types.AttributeFilter{{TraitType: "element", Value: "fire"}},
		types.SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "nft-2" {
		t.Fatalf("expected only nft-2, got %v", got)
	}
}

func TestFixtureTextSearch(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...))

	got, err := a.TextSearch(context.Background(), "dragon", types.SearchCriteria{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Matches name of nft-1 and collection name "Dragon Pack".
	if len(got) != 1 || got[0].ID != "nft-1" {
		t.Fatalf("expected nft-1, got %v", got)
	}
}

func TestFixtureVerifyAsset(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...))

	res, err := a.VerifyAsset(context.Background(), types.VerificationOptions{
		UserAddress: "0xAlice",
		Contract:    "0xc0ffee",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.HasAccess {
		t.Error("expected access for owner")
	}

	res, err = a.VerifyAsset(context.Background(), types.VerificationOptions{
		UserAddress: "0xMallory",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HasAccess {
		t.Error("expected no access for non-owner")
	}
}

func TestFixtureQueryAsset(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...))

	res, err := a.QueryAsset(context.Background(), types.AssetQueryOptions{Contract: "0xC0ffee", TokenID: "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.Asset.ID != "nft-2" {
		t.Fatalf("expected nft-2, got %+v", res)
	}

	res, err = a.QueryAsset(context.Background(), types.AssetQueryOptions{AssetID: "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Error("expected not found")
	}
}

func TestFixtureErrorInjection(t *testing.T) {
	boom := errors.New("injected failure")
	a := New(types.ChainEthereum, WithAssets(testAssets()...), WithError(OpTextSearch, boom))

	if _, err := a.TextSearch(context.Background(), "dragon", types.SearchCriteria{}); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	// Other operations still work.
	if _, err := a.SearchByOwner(context.Background(), "0xAlice", types.SearchCriteria{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFixtureDelayRespectsContext(t *testing.T) {
	a := New(types.ChainEthereum, WithAssets(testAssets()...), WithDelay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := a.SearchByOwner(ctx, "0xAlice", types.SearchCriteria{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
