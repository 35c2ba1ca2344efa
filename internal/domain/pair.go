// Package domain defines core data structures used throughout the marketplace service.
package domain

import "fmt"

// Pair order-book pair: the traded asset and the currency it is priced in.
type Pair struct {
	// Asset process id of the traded asset.
	Asset string
	// Currency process id of the token used for pricing.
	Currency string
}

// NewPairFromIDs builds a Pair from the two-element id tuple used by the market process.
// Missing elements stay empty.
func NewPairFromIDs(ids []string) Pair {
	var p Pair
	if len(ids) > 0 {
		p.Asset = ids[0]
	}
	if len(ids) > 1 {
		p.Currency = ids[1]
	}
	return p
}

// String returns the string representation.
func (p *Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Asset, p.Currency)
}
