package domain

// TokenInfo is the metadata of a currency token process.
type TokenInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Ticker       string `json:"ticker,omitempty"`
	Logo         string `json:"logo,omitempty"`
	Denomination int    `json:"denomination,omitempty"`
}

// StampCount is the aggregate endorsement count of an asset.
type StampCount struct {
	Total   int64 `json:"total"`
	Vouched int64 `json:"vouched"`
}

// StampRecord is the stored endorsement state of an asset.
// HasStamped is nil until the viewer-specific check has run.
type StampRecord struct {
	Total      int64 `json:"total"`
	Vouched    int64 `json:"vouched"`
	HasStamped *bool `json:"hasStamped,omitempty"`
}

// Streak is a per-identity consecutive activity counter.
type Streak struct {
	Days       int64 `json:"days"`
	LastHeight int64 `json:"lastHeight,omitempty"`
}
