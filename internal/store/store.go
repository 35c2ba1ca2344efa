// Package store holds the process-wide application state shared by every view.
package store

import (
	"sync"
	"time"

	"github.com/vadiminshakov/bazar/internal/domain"
	"go.uber.org/zap"
)

// State is the last known good payload per domain.
// A nil or empty domain has not been fetched successfully yet.
type State struct {
	Market     *domain.MarketInfo            `json:"market,omitempty"`
	Streaks    map[string]domain.Streak      `json:"streaks,omitempty"`
	Stamps     map[string]domain.StampRecord `json:"stamps,omitempty"`
	Currencies map[string]domain.TokenInfo   `json:"currencies,omitempty"`
}

// Journal records applied updates.
type Journal interface {
	Append(applied Applied) error
}

// Store applies updates through a single reducer and notifies subscribers.
type Store struct {
	mu       sync.RWMutex
	state    State
	seq      uint64
	versions map[domain.StoreDomain]uint64

	journal Journal
	logger  *zap.Logger

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan domain.StoreDomain
}

// New creates an empty store. journal may be nil.
func New(journal Journal, logger *zap.Logger) *Store {
	return &Store{
		versions: make(map[domain.StoreDomain]uint64),
		journal:  journal,
		logger:   logger.With(zap.String("component", "store")),
		subs:     make(map[int]chan domain.StoreDomain),
	}
}

// Dispatch applies the update and returns its sequence number.
func (s *Store) Dispatch(u Update) uint64 {
	if u == nil {
		return 0
	}

	s.mu.Lock()
	u.apply(&s.state)
	s.seq++
	seq := s.seq
	s.versions[u.Domain()]++
	applied := Applied{Seq: seq, Domain: u.Domain(), Time: time.Now().UTC(), Update: u}
	if s.journal != nil {
		if err := s.journal.Append(applied); err != nil {
			s.logger.Warn("failed to journal store update", zap.String("domain", u.Domain().String()), zap.Error(err))
		}
	}
	s.mu.Unlock()

	s.notify(u.Domain())

	return seq
}

// Version returns the number of updates applied to the domain.
func (s *Store) Version(d domain.StoreDomain) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[d]
}

// Has reports whether the domain holds data.
func (s *Store) Has(d domain.StoreDomain) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch d {
	case domain.DomainMarket:
		return s.state.Market != nil
	case domain.DomainStreaks:
		return s.state.Streaks != nil
	case domain.DomainStamps:
		return s.state.Stamps != nil
	case domain.DomainCurrencies:
		return len(s.state.Currencies) > 0
	}
	return false
}

// Market returns a copy of the market domain, nil when absent.
func (s *Store) Market() *domain.MarketInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMarket(s.state.Market)
}

// Snapshot returns a deep copy of the state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := State{Market: copyMarket(s.state.Market)}
	if s.state.Streaks != nil {
		snap.Streaks = make(map[string]domain.Streak, len(s.state.Streaks))
		for k, v := range s.state.Streaks {
			snap.Streaks[k] = v
		}
	}
	if s.state.Stamps != nil {
		snap.Stamps = make(map[string]domain.StampRecord, len(s.state.Stamps))
		for k, v := range s.state.Stamps {
			if v.HasStamped != nil {
				stamped := *v.HasStamped
				v.HasStamped = &stamped
			}
			snap.Stamps[k] = v
		}
	}
	if s.state.Currencies != nil {
		snap.Currencies = make(map[string]domain.TokenInfo, len(s.state.Currencies))
		for k, v := range s.state.Currencies {
			snap.Currencies[k] = v
		}
	}

	return snap
}

// Subscribe returns a channel receiving the domain of every applied update.
// Notifications are dropped while the subscriber is behind; the returned cancel func must be called.
func (s *Store) Subscribe() (<-chan domain.StoreDomain, func()) {
	ch := make(chan domain.StoreDomain, len(domain.Domains))

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

func (s *Store) notify(d domain.StoreDomain) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

func copyMarket(m *domain.MarketInfo) *domain.MarketInfo {
	if m == nil {
		return nil
	}

	out := domain.MarketInfo{Name: m.Name, LastUpdate: m.LastUpdate}
	out.Orderbook = make([]domain.OrderbookEntry, len(m.Orderbook))
	for i, e := range m.Orderbook {
		out.Orderbook[i] = domain.OrderbookEntry{
			Pair:   append([]string(nil), e.Pair...),
			Orders: append([]domain.MarketOrder(nil), e.Orders...),
		}
	}

	return &out
}
