package domain

import "time"

// StoreDomain names a cross-cutting domain of the application store.
type StoreDomain string

const (
	DomainMarket     StoreDomain = "market"
	DomainStreaks    StoreDomain = "streaks"
	DomainStamps     StoreDomain = "stamps"
	DomainCurrencies StoreDomain = "currencies"
)

// Domains lists every store domain.
var Domains = []StoreDomain{DomainMarket, DomainStreaks, DomainStamps, DomainCurrencies}

// String returns the string representation.
func (d StoreDomain) String() string {
	return string(d)
}

// DomainStatus tracks the refresh state of one domain.
// Updating is true only while a refresh is in flight; LastUpdate is set only on success.
type DomainStatus struct {
	Updating   bool       `json:"updating"`
	Completed  bool       `json:"completed"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// AppStatus is the status of all refreshed domains.
type AppStatus struct {
	Market     DomainStatus `json:"market"`
	Streaks    DomainStatus `json:"streaks"`
	Stamps     DomainStatus `json:"stamps"`
	Currencies DomainStatus `json:"currencies"`
}
