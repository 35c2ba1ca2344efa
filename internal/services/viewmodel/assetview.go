package viewmodel

import (
	"fmt"

	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
	"github.com/vadiminshakov/bazar/pkg/format"
)

// OwnerLine is one row of the owners table.
type OwnerLine struct {
	domain.Owner
	Name        string `json:"name"`
	QuantityFmt string `json:"quantityFormatted"`
	PercentFmt  string `json:"percentageFormatted"`
}

// ListingLine is one row of the listings table.
type ListingLine struct {
	domain.Listing
	Seller       string `json:"seller"`
	QuantityFmt  string `json:"quantityFormatted"`
	PercentFmt   string `json:"percentageFormatted,omitempty"`
	PriceFmt     string `json:"priceFormatted"`
	CurrencyName string `json:"currencyName"`
	Cancellable  bool   `json:"cancellable"`
}

// AssetView is the derived detail view of an asset.
type AssetView struct {
	AssetID         string              `json:"assetId"`
	Title           string              `json:"title"`
	Ticker          string              `json:"ticker,omitempty"`
	Logo            string              `json:"logo,omitempty"`
	TotalBalance    string              `json:"totalBalance"`
	Owners          []OwnerLine         `json:"owners"`
	Listings        []ListingLine       `json:"listings"`
	OwnersSummary   string              `json:"ownersSummary,omitempty"`
	ListingsSummary string              `json:"listingsSummary,omitempty"`
	Stamps          *domain.StampRecord `json:"stamps,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// BuildAssetView combines the asset, the store state and the resolved profiles into a view.
func BuildAssetView(asset *domain.Asset, state store.State, profiles map[string]*domain.Profile, viewer domain.Viewer, escrow string) AssetView {
	if asset == nil {
		return AssetView{}
	}

	view := AssetView{
		AssetID:      asset.ID,
		Title:        asset.Title,
		Ticker:       asset.Ticker,
		Logo:         asset.Logo,
		TotalBalance: DenominatedValue(asset.TotalBalance(), asset.ID, state.Currencies, asset.Denomination),
		Owners:       []OwnerLine{},
		Listings:     []ListingLine{},
	}

	for _, o := range DeriveOwners(asset, profiles, escrow) {
		view.Owners = append(view.Owners, OwnerLine{
			Owner:       o,
			Name:        DisplayName(o.Address, o.Profile),
			QuantityFmt: DenominatedValue(o.Quantity, asset.ID, state.Currencies, asset.Denomination),
			PercentFmt:  format.Percentage(o.Percentage),
		})
	}

	listings, err := DeriveListings(asset, profiles)
	if err != nil {
		view.Warnings = append(view.Warnings, err.Error())
	}
	for _, l := range listings {
		line := ListingLine{
			Listing:      l,
			Seller:       DisplayName(l.Creator, l.Profile),
			QuantityFmt:  DenominatedValue(l.Quantity, asset.ID, state.Currencies, asset.Denomination),
			PriceFmt:     DenominatedValue(l.Price, l.Currency, state.Currencies, 0),
			CurrencyName: CurrencyName(l.Currency, state.Currencies),
			Cancellable:  OwnsListing(viewer, l),
		}
		if l.Percentage != nil {
			line.PercentFmt = format.Percentage(*l.Percentage)
		}
		view.Listings = append(view.Listings, line)
	}

	view.OwnersSummary = Summary(len(view.Owners), "owner")
	view.ListingsSummary = Summary(len(view.Listings), "owner")

	if rec, ok := state.Stamps[asset.ID]; ok {
		view.Stamps = &rec
	}

	return view
}

// Summary renders a count with a pluralized noun, empty for zero.
func Summary(n int, noun string) string {
	if n <= 0 {
		return ""
	}
	if n > 1 {
		noun += "s"
	}
	return fmt.Sprintf("%s %s", format.Count(decimalFromInt(n)), noun)
}

// DisplayName prefers the profile username, then its display name, then the shortened address.
func DisplayName(address string, profile *domain.Profile) string {
	if profile != nil {
		if profile.Username != "" {
			return profile.Username
		}
		if profile.DisplayName != "" {
			return profile.DisplayName
		}
	}
	return format.Address(address, false)
}

// CurrencyName returns the token ticker when known, otherwise the shortened process id.
func CurrencyName(currency string, currencies map[string]domain.TokenInfo) string {
	if token, ok := currencies[currency]; ok && token.Ticker != "" {
		return token.Ticker
	}
	return format.Address(currency, false)
}
