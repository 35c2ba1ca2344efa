package store

import (
	"time"

	"github.com/vadiminshakov/bazar/internal/domain"
)

// Update is an immutable change to one store domain.
// Updates are applied by Store.Dispatch in arrival order.
type Update interface {
	Domain() domain.StoreDomain
	apply(s *State)
}

// SetMarket replaces the market domain.
type SetMarket struct {
	Info domain.MarketInfo `json:"info"`
}

func (SetMarket) Domain() domain.StoreDomain { return domain.DomainMarket }

func (u SetMarket) apply(s *State) {
	info := u.Info
	s.Market = &info
}

// SetStreaks replaces the streaks domain.
type SetStreaks struct {
	Streaks map[string]domain.Streak `json:"streaks"`
}

func (SetStreaks) Domain() domain.StoreDomain { return domain.DomainStreaks }

func (u SetStreaks) apply(s *State) {
	s.Streaks = make(map[string]domain.Streak, len(u.Streaks))
	for k, v := range u.Streaks {
		s.Streaks[k] = v
	}
}

// MergeStamps merges fresh counts into the stamps domain.
// Existing has-stamped flags survive the merge; ClearStampChecks drops them.
type MergeStamps struct {
	Counts map[string]domain.StampCount `json:"counts"`
}

func (MergeStamps) Domain() domain.StoreDomain { return domain.DomainStamps }

func (u MergeStamps) apply(s *State) {
	if s.Stamps == nil {
		s.Stamps = make(map[string]domain.StampRecord, len(u.Counts))
	}
	for id, c := range u.Counts {
		rec := s.Stamps[id]
		rec.Total = c.Total
		rec.Vouched = c.Vouched
		s.Stamps[id] = rec
	}
}

// MergeStampChecks merges viewer-specific has-stamped flags together with the counts they were read against.
// Ids without a flag are recorded as not stamped.
type MergeStampChecks struct {
	Counts map[string]domain.StampCount `json:"counts"`
	Checks map[string]bool              `json:"checks"`
}

func (MergeStampChecks) Domain() domain.StoreDomain { return domain.DomainStamps }

func (u MergeStampChecks) apply(s *State) {
	if s.Stamps == nil {
		s.Stamps = make(map[string]domain.StampRecord, len(u.Counts))
	}
	for id, c := range u.Counts {
		stamped := u.Checks[id]
		s.Stamps[id] = domain.StampRecord{Total: c.Total, Vouched: c.Vouched, HasStamped: &stamped}
	}
}

// ClearStampChecks drops every has-stamped flag and keeps the counts.
type ClearStampChecks struct{}

func (ClearStampChecks) Domain() domain.StoreDomain { return domain.DomainStamps }

func (ClearStampChecks) apply(s *State) {
	for id, rec := range s.Stamps {
		rec.HasStamped = nil
		s.Stamps[id] = rec
	}
}

// MergeCurrencies merges token metadata keyed by process id.
type MergeCurrencies struct {
	Tokens map[string]domain.TokenInfo `json:"tokens"`
}

func (MergeCurrencies) Domain() domain.StoreDomain { return domain.DomainCurrencies }

func (u MergeCurrencies) apply(s *State) {
	if s.Currencies == nil {
		s.Currencies = make(map[string]domain.TokenInfo, len(u.Tokens))
	}
	for id, t := range u.Tokens {
		s.Currencies[id] = t
	}
}

// Applied is a dispatched update with its position in the store history.
type Applied struct {
	Seq    uint64             `json:"seq"`
	Domain domain.StoreDomain `json:"domain"`
	Time   time.Time          `json:"time"`
	Update Update             `json:"update"`
}
