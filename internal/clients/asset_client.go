package clients

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/domain"
)

// AssetClient fetches atomic asset processes.
type AssetClient struct {
	gateway Gateway
}

// NewAssetClient creates a new asset client.
func NewAssetClient(gateway Gateway) *AssetClient {
	return &AssetClient{gateway: gateway}
}

// GetAsset reads the asset process Info and joins its open orders from the market snapshot.
func (c *AssetClient) GetAsset(ctx context.Context, assetID string, market *domain.MarketInfo) (domain.Asset, error) {
	raw, err := c.gateway.Read(ctx, ReadRequest{
		ProcessID: assetID,
		Action:    "Info",
	})
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			return domain.Asset{}, errors.Wrapf(ErrNotFound, "asset %s", assetID)
		}
		return domain.Asset{}, errors.Wrapf(err, "read asset %s", assetID)
	}

	asset, err := DecodeAsset(assetID, raw)
	if err != nil {
		return domain.Asset{}, err
	}
	asset.Orders = market.OrdersFor(assetID)

	return asset, nil
}
