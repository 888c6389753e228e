// Package evm implements the ChainAdapter contract for EVM-family chains by
// querying an external NFT indexer HTTP API. Addresses are validated and
// checksummed with go-ethereum before any request leaves the adapter.
package evm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"github.com/whereissam/chainsearch/pkg/types"
	"go.uber.org/zap"
)

// Config holds the adapter configuration for one EVM chain.
type Config struct {
	// Chain is the chain ID to serve, e.g. "ethereum" or "polygon".
	Chain types.ChainID `yaml:"chain"`
	// Endpoint is the base URL of the NFT indexer API. Empty means the
	// adapter is not configured.
	Endpoint string `yaml:"endpoint"`
	// APIKey is sent as X-API-Key when non-empty.
	APIKey string `yaml:"api_key,omitempty"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// PageSize caps how many assets one indexer call returns.
	PageSize int `yaml:"page_size,omitempty"`
}

// Adapter queries an EVM NFT indexer.
type Adapter struct {
	config Config
	client *resty.Client
	logger *zap.Logger
}

// New creates an EVM adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.Chain == "" {
		cfg.Chain = types.ChainEthereum
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}

	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}

	return &Adapter{
		config: cfg,
		client: client,
		logger: logger.Named("evm").With(zap.String("chain", string(cfg.Chain))),
	}
}

// ChainID implements ChainAdapter.
func (a *Adapter) ChainID() types.ChainID { return a.config.Chain }

// IsConfigured implements ChainAdapter.
func (a *Adapter) IsConfigured() bool { return a.config.Endpoint != "" }

// normalizeAddress validates a hex address and returns its EIP-55 form.
func normalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid address %q", addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// indexerAsset is one asset record as the indexer API returns it.
type indexerAsset struct {
	TokenID     string `json:"tokenId"`
	Contract    string `json:"contract"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Attributes  []struct {
		TraitType string `json:"trait_type"`
		Value     string `json:"value"`
	} `json:"attributes"`
	Owner      string `json:"owner"`
	Collection *struct {
		Address  string `json:"address"`
		Name     string `json:"name"`
		Verified bool   `json:"verified"`
	} `json:"collection"`
	LastSalePrice  float64 `json:"lastSalePrice"`
	EstimatedValue float64 `json:"estimatedValue"`
	MintedAt       int64   `json:"mintedAt"`
	LastTransferAt int64   `json:"lastTransferAt"`
	TxHash         string  `json:"txHash"`
}

type assetListResponse struct {
	Assets []indexerAsset `json:"assets"`
}

// toUnified converts one indexer record into the normalized form.
func (a *Adapter) toUnified(raw indexerAsset) *types.UnifiedAsset {
	asset := &types.UnifiedAsset{
		Chain: a.config.Chain,
		ID:    raw.Contract + ":" + raw.TokenID,
		Kind:  types.KindNFT,
		Metadata: types.Metadata{
			Name:        raw.Name,
			Description: raw.Description,
			ImageURL:    raw.ImageURL,
		},
		Ownership: types.Ownership{Owner: raw.Owner},
		Provenance: types.Provenance{
			Contract:  raw.Contract,
			TokenID:   raw.TokenID,
			CreatedAt: time.Unix(raw.MintedAt, 0).UTC(),
			TxRef:     raw.TxHash,
		},
	}
	for _, attr := range raw.Attributes {
		asset.Metadata.Attributes = append(asset.Metadata.Attributes, types.Attribute{
			TraitType: attr.TraitType,
			Value:     attr.Value,
		})
	}
	if raw.Collection != nil {
		asset.Collection = &types.CollectionInfo{
			Ref:      raw.Collection.Address,
			Name:     raw.Collection.Name,
			Verified: raw.Collection.Verified,
		}
	}
	if raw.LastSalePrice > 0 || raw.EstimatedValue > 0 {
		asset.Market = &types.MarketInfo{
			LastSalePrice:  raw.LastSalePrice,
			EstimatedValue: raw.EstimatedValue,
			Currency:       "ETH",
		}
	}
	if raw.LastTransferAt > 0 {
		t := time.Unix(raw.LastTransferAt, 0).UTC()
		asset.Provenance.LastActivity = &t
	}
	return asset
}

// listAssets performs one GET /v1/assets call with the given query params.
func (a *Adapter) listAssets(ctx context.Context, params map[string]string) ([]*types.UnifiedAsset, error) {
	var body assetListResponse

	params["limit"] = strconv.Itoa(a.config.PageSize)
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get("/v1/assets")
	if err != nil {
		return nil, fmt.Errorf("indexer request: %w", err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	out := make([]*types.UnifiedAsset, 0, len(body.Assets))
	for _, raw := range body.Assets {
		out = append(out, a.toUnified(raw))
	}
	return out, nil
}

// statusError maps non-2xx indexer responses onto errors whose messages the
// classifier recognizes.
func statusError(resp *resty.Response) error {
	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("indexer: not found: %s", resp.String())
	case resp.StatusCode() == http.StatusTooManyRequests:
		return fmt.Errorf("indexer: rate limit exceeded (429)")
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("indexer: service unavailable (%d)", resp.StatusCode())
	default:
		return fmt.Errorf("indexer: unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
}

// SearchByOwner implements ChainAdapter.
func (a *Adapter) SearchByOwner(ctx context.Context, owner string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	addr, err := normalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	return a.listAssets(ctx, map[string]string{"owner": addr})
}

// SearchByCollection implements ChainAdapter.
func (a *Adapter) SearchByCollection(ctx context.Context, collectionRef string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	addr, err := normalizeAddress(collectionRef)
	if err != nil {
		return nil, err
	}
	return a.listAssets(ctx, map[string]string{"collection": addr})
}

// SearchByAttributes implements ChainAdapter. Filters are forwarded as
// trait query params; unsupported operators degrade to equality server-side.
func (a *Adapter) SearchByAttributes(ctx context.Context, filters []types.AttributeFilter, criteria types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	params := make(map[string]string, len(filters)+1)
	for _, f := range filters {
		params["trait:"+f.TraitType] = f.Value
	}
	if criteria.Owner != "" {
		addr, err := normalizeAddress(criteria.Owner)
		if err != nil {
			return nil, err
		}
		params["owner"] = addr
	}
	return a.listAssets(ctx, params)
}

// TextSearch implements ChainAdapter.
func (a *Adapter) TextSearch(ctx context.Context, query string, _ types.SearchCriteria) ([]*types.UnifiedAsset, error) {
	return a.listAssets(ctx, map[string]string{"q": query})
}

// VerifyAsset implements ChainAdapter. Access is granted when the user owns
// at least one matching asset on this chain.
func (a *Adapter) VerifyAsset(ctx context.Context, opts types.VerificationOptions) (*types.VerificationResult, error) {
	addr, err := normalizeAddress(opts.UserAddress)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"owner": addr}
	if opts.Contract != "" {
		contract, err := normalizeAddress(opts.Contract)
		if err != nil {
			return nil, err
		}
		params["collection"] = contract
	}

	assets, err := a.listAssets(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &types.VerificationResult{
		Chain:      a.config.Chain,
		VerifiedAt: time.Now(),
	}
	for _, asset := range assets {
		if opts.AssetID != "" && asset.ID != opts.AssetID {
			continue
		}
		result.HasAccess = true
		result.Asset = asset
		break
	}

	a.logger.Debug("verified ownership",
		zap.String("user", addr),
		zap.Bool("hasAccess", result.HasAccess),
	)

	return result, nil
}

// QueryAsset implements ChainAdapter.
func (a *Adapter) QueryAsset(ctx context.Context, opts types.AssetQueryOptions) (*types.AssetQueryResult, error) {
	contract := opts.Contract
	tokenID := opts.TokenID
	if contract == "" && opts.AssetID != "" {
		// Chain-local IDs are "{contract}:{tokenId}".
		var ok bool
		contract, tokenID, ok = splitAssetID(opts.AssetID)
		if !ok {
			return nil, fmt.Errorf("invalid address in asset id %q", opts.AssetID)
		}
	}

	addr, err := normalizeAddress(contract)
	if err != nil {
		return nil, err
	}

	var raw indexerAsset
	resp, err := a.client.R().
		SetContext(ctx).
		SetResult(&raw).
		Get("/v1/assets/" + addr + "/" + tokenID)
	if err != nil {
		return nil, fmt.Errorf("indexer request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return &types.AssetQueryResult{Found: false}, nil
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	return &types.AssetQueryResult{Found: true, Asset: a.toUnified(raw)}, nil
}

func splitAssetID(id string) (contract, tokenID string, ok bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return id[:i], id[i+1:], i > 0 && i < len(id)-1
		}
	}
	return "", "", false
}
