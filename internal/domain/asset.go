package domain

import "github.com/shopspring/decimal"

// Asset is an atomic asset process as loaded for one detail view.
// It is replaced wholesale on re-fetch.
type Asset struct {
	ID           string                     `json:"id"`
	Title        string                     `json:"title"`
	Ticker       string                     `json:"ticker,omitempty"`
	Logo         string                     `json:"logo,omitempty"`
	Denomination int                        `json:"denomination,omitempty"`
	Balances     map[string]decimal.Decimal `json:"balances"`
	Orders       []Order                    `json:"orders,omitempty"`
}

// TotalBalance sums all balances, escrow included.
func (a *Asset) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	if a == nil {
		return total
	}
	for _, qty := range a.Balances {
		total = total.Add(qty)
	}
	return total
}

// Order is an open sell order of an asset.
type Order struct {
	ID               string          `json:"id"`
	Creator          string          `json:"creator"`
	Quantity         decimal.Decimal `json:"quantity"`
	OriginalQuantity decimal.Decimal `json:"originalQuantity,omitempty"`
	Price            decimal.Decimal `json:"price"`
	Currency         string          `json:"currency"`
}

// Listing is an order joined with its creator profile.
// Percentage is nil when the asset total balance is zero.
type Listing struct {
	Order
	Profile    *Profile         `json:"profile,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

// Owner is a holder of an asset.
// Percentage is the holder's share of the total balance as a fraction in [0, 1].
type Owner struct {
	Address    string          `json:"address"`
	Quantity   decimal.Decimal `json:"quantity"`
	Percentage decimal.Decimal `json:"percentage"`
	Profile    *Profile        `json:"profile,omitempty"`
}
