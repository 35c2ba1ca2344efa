package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketOrder is an open order as reported by the market process.
type MarketOrder struct {
	ID               string          `json:"Id"`
	Creator          string          `json:"Creator"`
	Quantity         decimal.Decimal `json:"Quantity"`
	OriginalQuantity decimal.Decimal `json:"OriginalQuantity"`
	Price            decimal.Decimal `json:"Price"`
	Token            string          `json:"Token,omitempty"`
}

// OrderbookEntry groups the open orders of one pair.
type OrderbookEntry struct {
	Pair   []string      `json:"Pair"`
	Orders []MarketOrder `json:"Orders"`
}

// MarketInfo is the last known state of the market process.
type MarketInfo struct {
	Name       string           `json:"Name,omitempty"`
	Orderbook  []OrderbookEntry `json:"Orderbook"`
	LastUpdate time.Time        `json:"lastUpdate"`
}

// AssetIDs returns the ids of all assets with an order-book entry, in order of first appearance.
// Entries without a pair are skipped and repeated ids are reported once.
func (m *MarketInfo) AssetIDs() []string {
	if m == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(m.Orderbook))
	ids := make([]string, 0, len(m.Orderbook))
	for _, entry := range m.Orderbook {
		pair := NewPairFromIDs(entry.Pair)
		if pair.Asset == "" {
			continue
		}
		if _, ok := seen[pair.Asset]; ok {
			continue
		}
		seen[pair.Asset] = struct{}{}
		ids = append(ids, pair.Asset)
	}

	return ids
}

// OrdersFor returns the open orders of the given asset across all of its pairs.
func (m *MarketInfo) OrdersFor(assetID string) []Order {
	if m == nil || assetID == "" {
		return nil
	}

	var orders []Order
	for _, entry := range m.Orderbook {
		pair := NewPairFromIDs(entry.Pair)
		if pair.Asset != assetID {
			continue
		}
		for _, o := range entry.Orders {
			orders = append(orders, Order{
				ID:               o.ID,
				Creator:          o.Creator,
				Quantity:         o.Quantity,
				OriginalQuantity: o.OriginalQuantity,
				Price:            o.Price,
				Currency:         pair.Currency,
			})
		}
	}

	return orders
}
