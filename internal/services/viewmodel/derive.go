// Package viewmodel derives owners, listings and display values from a fetched asset and the store state.
// Every function here is pure.
package viewmodel

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/pkg/format"
)

// ErrZeroTotalBalance is reported when listing percentages cannot be computed.
var ErrZeroTotalBalance = errors.New("asset total balance is zero")

// AssociatedAddresses returns the sorted, deduplicated union of balance holders and order creators.
func AssociatedAddresses(asset *domain.Asset) []string {
	if asset == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(asset.Balances)+len(asset.Orders))
	for addr := range asset.Balances {
		if addr != "" {
			seen[addr] = struct{}{}
		}
	}
	for _, o := range asset.Orders {
		if o.Creator != "" {
			seen[o.Creator] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for addr := range seen {
		out = append(out, addr)
	}
	sort.Strings(out)

	return out
}

// IndexProfiles keys profiles by id.
func IndexProfiles(profiles []domain.Profile) map[string]*domain.Profile {
	out := make(map[string]*domain.Profile, len(profiles))
	for i := range profiles {
		p := profiles[i]
		if p.ID == "" {
			continue
		}
		out[p.ID] = &p
	}
	return out
}

// DeriveOwners computes every holder's share of the total balance.
// The escrow address and holders with a zero share are excluded; the rest is ordered
// by quantity descending, then address.
func DeriveOwners(asset *domain.Asset, profiles map[string]*domain.Profile, escrow string) []domain.Owner {
	if asset == nil {
		return nil
	}

	total := asset.TotalBalance()
	owners := make([]domain.Owner, 0, len(asset.Balances))
	for addr, qty := range asset.Balances {
		if addr == escrow {
			continue
		}

		pct := decimal.Zero
		if total.IsPositive() {
			pct = qty.Div(total)
		}
		if !pct.IsPositive() {
			continue
		}

		owners = append(owners, domain.Owner{
			Address:    addr,
			Quantity:   qty,
			Percentage: pct,
			Profile:    profiles[addr],
		})
	}

	sort.Slice(owners, func(i, j int) bool {
		if c := owners[i].Quantity.Cmp(owners[j].Quantity); c != 0 {
			return c > 0
		}
		return owners[i].Address < owners[j].Address
	})

	return owners
}

// DeriveListings orders the asset's open orders by ascending price, keeping the
// original order for equal prices, and attaches the creator profile.
// When the total balance is zero no percentage is set and ErrZeroTotalBalance is returned with the listings.
func DeriveListings(asset *domain.Asset, profiles map[string]*domain.Profile) ([]domain.Listing, error) {
	if asset == nil {
		return nil, nil
	}

	orders := append([]domain.Order(nil), asset.Orders...)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Price.LessThan(orders[j].Price)
	})

	total := asset.TotalBalance()
	var err error
	if !total.IsPositive() && len(orders) > 0 {
		err = ErrZeroTotalBalance
	}

	listings := make([]domain.Listing, 0, len(orders))
	for _, o := range orders {
		l := domain.Listing{Order: o, Profile: profiles[o.Creator]}
		if err == nil {
			pct := o.Quantity.Div(total)
			l.Percentage = &pct
		}
		listings = append(listings, l)
	}

	return listings, err
}

// DenominatedValue formats a raw amount.
// The currency's stored denomination wins when above one, then the asset denomination
// when above one; otherwise the raw amount is formatted.
func DenominatedValue(amount decimal.Decimal, currency string, currencies map[string]domain.TokenInfo, assetDenomination int) string {
	if token, ok := currencies[currency]; ok && token.Denomination > 1 {
		return format.Count(format.Denominate(amount, token.Denomination))
	}
	if assetDenomination > 1 {
		return format.Count(format.Denominate(amount, assetDenomination))
	}
	return format.Count(amount)
}

// OwnsListing reports whether the viewer may cancel the listing.
func OwnsListing(viewer domain.Viewer, listing domain.Listing) bool {
	return viewer.Owns(listing.Creator)
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
