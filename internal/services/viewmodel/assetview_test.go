package viewmodel

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
)

func TestBuildAssetView(t *testing.T) {
	stamped := true
	state := store.State{
		Currencies: map[string]domain.TokenInfo{"tok": {ID: "tok", Ticker: "wAR", Denomination: 2}},
		Stamps:     map[string]domain.StampRecord{"asset": {Total: 3, Vouched: 1, HasStamped: &stamped}},
	}
	profiles := IndexProfiles([]domain.Profile{{ID: "B", DisplayName: "Bob"}})
	viewer := domain.Viewer{WalletAddress: "w", ProfileID: "B"}

	view := BuildAssetView(testAsset(), state, profiles, viewer, escrow)

	assert.Equal(t, "asset", view.AssetID)
	assert.Equal(t, "100", view.TotalBalance)
	assert.Equal(t, "2 owners", view.OwnersSummary)
	assert.Equal(t, "4 owners", view.ListingsSummary)
	assert.Empty(t, view.Warnings)

	require.Len(t, view.Owners, 2)
	assert.Equal(t, "A", view.Owners[0].Name)
	assert.Equal(t, "60%", view.Owners[0].PercentFmt)
	assert.Equal(t, "Bob", view.Owners[1].Name)

	require.Len(t, view.Listings, 4)
	first := view.Listings[0]
	assert.Equal(t, "o2", first.ID)
	assert.Equal(t, "1", first.PriceFmt)
	assert.Equal(t, "wAR", first.CurrencyName)
	assert.Equal(t, "5%", first.PercentFmt)
	assert.False(t, first.Cancellable)

	var cancellable []string
	for _, l := range view.Listings {
		if l.Cancellable {
			cancellable = append(cancellable, l.ID)
		}
	}
	assert.Equal(t, []string{"o4", "o1"}, cancellable)

	require.NotNil(t, view.Stamps)
	assert.Equal(t, int64(3), view.Stamps.Total)
}

func TestBuildAssetView_ZeroBalanceWarning(t *testing.T) {
	asset := &domain.Asset{
		ID:     "asset",
		Orders: []domain.Order{{ID: "o1", Creator: "x", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)}},
	}

	view := BuildAssetView(asset, store.State{}, nil, domain.Viewer{}, escrow)
	assert.Equal(t, []string{ErrZeroTotalBalance.Error()}, view.Warnings)
	require.Len(t, view.Listings, 1)
	assert.Empty(t, view.Listings[0].PercentFmt)
	assert.Empty(t, view.Owners)
	assert.Empty(t, view.OwnersSummary)
	assert.Equal(t, "1 owner", view.ListingsSummary)
}

func TestBuildAssetView_Nil(t *testing.T) {
	assert.Equal(t, AssetView{}, BuildAssetView(nil, store.State{}, nil, domain.Viewer{}, escrow))
}

func TestDisplayName(t *testing.T) {
	addr := "hqdL4AZaFZ0huQHbAsYxdTwG6vpibK7ALWKNzmWaD4Q"
	assert.Equal(t, "hqdL4...WaD4Q", DisplayName(addr, nil))
	assert.Equal(t, "alice", DisplayName(addr, &domain.Profile{Username: "alice", DisplayName: "Alice"}))
	assert.Equal(t, "Alice", DisplayName(addr, &domain.Profile{DisplayName: "Alice"}))
}
