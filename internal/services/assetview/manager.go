// Package assetview manages open asset detail views: the selected tab, the owners
// and listings modals, the per-view profile cache and the user actions taken from the view.
package assetview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/metrics"
	"github.com/vadiminshakov/bazar/internal/store"
	"github.com/vadiminshakov/bazar/pkg/format"
	"go.uber.org/zap"
)

const defaultIdleTimeout = 30 * time.Minute

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("view session not found")
	// ErrNotOrderOwner is returned when the viewer tries to cancel someone else's order.
	ErrNotOrderOwner = errors.New("order does not belong to the viewer")
	// ErrViewerRequired is returned for actions that need a wallet and a profile.
	ErrViewerRequired = errors.New("viewer wallet and profile required")
	// ErrInvalidAssetID is returned for malformed asset ids.
	ErrInvalidAssetID = errors.New("invalid asset id")
	// ErrInvalidListing is returned for listing requests with non-positive amounts.
	ErrInvalidListing = errors.New("invalid listing")
	// ErrInsufficientBalance is returned when the viewer lists more than it holds.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type assetSource interface {
	GetAsset(ctx context.Context, assetID string, market *domain.MarketInfo) (domain.Asset, error)
}

type profileSource interface {
	GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error)
}

type stateSource interface {
	Snapshot() store.State
	Market() *domain.MarketInfo
}

type viewerSource interface {
	Viewer() domain.Viewer
	RefreshMarket(ctx context.Context)
}

type relay interface {
	Send(ctx context.Context, msg clients.Message) (string, error)
}

// Config configures the manager.
type Config struct {
	MarketProcess string
	// EscrowAddress is excluded from owners.
	EscrowAddress string
	IdleTimeout   time.Duration
}

// Manager owns every open asset view session.
type Manager struct {
	cfg      Config
	assets   assetSource
	profiles profileSource
	state    stateSource
	viewer   viewerSource
	relay    relay
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new session manager. relay may be nil, which disables user actions.
func NewManager(cfg Config, assets assetSource, profiles profileSource, state stateSource, viewer viewerSource, r relay, logger *zap.Logger) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.EscrowAddress == "" {
		cfg.EscrowAddress = cfg.MarketProcess
	}
	return &Manager{
		cfg:      cfg,
		assets:   assets,
		profiles: profiles,
		state:    state,
		viewer:   viewer,
		relay:    r,
		logger:   logger.With(zap.String("component", "assetview")),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for the asset and loads it.
// The session stays open when the first load fails so the caller can retry with Reload.
func (m *Manager) Open(ctx context.Context, assetID string) (Snapshot, error) {
	if !format.ValidTxID(assetID) {
		return Snapshot{}, errors.Wrapf(ErrInvalidAssetID, "%q", assetID)
	}

	s := newSession(uuid.NewString(), assetID, m.now())
	m.mu.Lock()
	m.sessions[s.id] = s
	open := len(m.sessions)
	m.mu.Unlock()
	metrics.SetOpenSessions(open)

	m.logger.Debug("view session opened", zap.String("session", s.id), zap.String("asset", assetID))

	return m.reload(ctx, s)
}

// Get returns the current snapshot of the session.
func (m *Manager) Get(sessionID string) (Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return m.snapshot(s), nil
}

// SelectTab switches the active tab without refetching.
func (m *Manager) SelectTab(sessionID string, tab Tab) (Snapshot, error) {
	tab, err := ParseTab(string(tab))
	if err != nil {
		return Snapshot{}, err
	}
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()

	return m.snapshot(s), nil
}

// SetOwnersModal opens or closes the owners modal. It only opens when there are owners.
func (m *Manager) SetOwnersModal(sessionID string, open bool) (Snapshot, error) {
	return m.setModal(sessionID, func(s *Session) { s.ownersModal = open })
}

// SetListingsModal opens or closes the listings modal. It only opens when there are listings.
func (m *Manager) SetListingsModal(sessionID string, open bool) (Snapshot, error) {
	return m.setModal(sessionID, func(s *Session) { s.listingsModal = open })
}

func (m *Manager) setModal(sessionID string, set func(s *Session)) (Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	state, viewer := m.state.Snapshot(), m.viewer.Viewer()

	s.mu.Lock()
	defer s.mu.Unlock()
	set(s)
	s.lastSeen = m.now()

	return s.deriveLocked(state, viewer, m.cfg.EscrowAddress), nil
}

// Reload refetches the asset and any profiles not yet cached by the session.
func (m *Manager) Reload(ctx context.Context, sessionID string) (Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return m.reload(ctx, s)
}

func (m *Manager) reload(ctx context.Context, s *Session) (Snapshot, error) {
	s.mu.Lock()
	s.reloadGen++
	gen := s.reloadGen
	s.lastSeen = m.now()
	s.mu.Unlock()

	logger := m.logger.With(zap.String("session", s.id), zap.String("asset", s.assetID))

	asset, err := m.assets.GetAsset(ctx, s.assetID, m.state.Market())
	if err != nil {
		return m.snapshot(s), errors.Wrapf(err, "load asset %s", s.assetID)
	}

	s.mu.Lock()
	missing := s.missingProfilesLocked(&asset)
	s.mu.Unlock()

	var fetched []domain.Profile
	if len(missing) > 0 {
		fetched, err = m.profiles.GetProfiles(ctx, missing)
		if err != nil {
			logger.Error("failed to load associated profiles", zap.Error(err))
			fetched = nil
			missing = nil
		}
	}

	s.mu.Lock()
	if gen != s.reloadGen {
		s.mu.Unlock()
		logger.Debug("discarded superseded asset reload")
		return m.snapshot(s), nil
	}
	s.asset = &asset
	for i := range fetched {
		p := fetched[i]
		s.profiles[p.ID] = &p
	}
	// remember misses so they are not requested again
	for _, addr := range missing {
		if _, ok := s.profiles[addr]; !ok {
			s.profiles[addr] = nil
		}
	}
	s.mu.Unlock()

	return m.snapshot(s), nil
}

// CancelOrder cancels one of the viewer's own listings and reloads the view.
func (m *Manager) CancelOrder(ctx context.Context, sessionID, orderID string) (Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if m.relay == nil {
		return Snapshot{}, errors.New("relay is not configured")
	}

	snap := m.snapshot(s)
	var found, owned bool
	for _, l := range snap.View.Listings {
		if l.ID == orderID {
			found = true
			owned = l.Cancellable
			break
		}
	}
	if !found {
		return snap, errors.Wrapf(clients.ErrNotFound, "order %s", orderID)
	}
	if !owned {
		return snap, errors.Wrapf(ErrNotOrderOwner, "order %s", orderID)
	}

	if _, err := m.relay.Send(ctx, clients.CancelOrderMessage(m.cfg.MarketProcess, orderID)); err != nil {
		return snap, errors.Wrap(err, "cancel order")
	}

	return m.afterAction(ctx, s)
}

// ListingRequest describes a new sell order. Amounts are raw integer units.
type ListingRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// CreateListing places a sell order for part of the viewer's balance and reloads the view.
func (m *Manager) CreateListing(ctx context.Context, sessionID string, req ListingRequest) (Snapshot, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if m.relay == nil {
		return Snapshot{}, errors.New("relay is not configured")
	}

	viewer := m.viewer.Viewer()
	if !viewer.Authenticated() {
		return m.snapshot(s), ErrViewerRequired
	}
	if !req.Quantity.IsPositive() || !req.Price.IsPositive() || req.Currency == "" {
		return m.snapshot(s), errors.Wrap(ErrInvalidListing, "quantity, price and currency are required")
	}

	s.mu.Lock()
	var held decimal.Decimal
	if s.asset != nil {
		held = s.asset.Balances[viewer.ProfileID]
	}
	s.mu.Unlock()
	if req.Quantity.GreaterThan(held) {
		return m.snapshot(s), errors.Wrapf(ErrInsufficientBalance, "holding %s", held.String())
	}

	msg := clients.CreateListingMessage(s.assetID, m.cfg.MarketProcess, req.Currency, req.Quantity, req.Price)
	msg.Tags = append(msg.Tags, clients.Tag{Name: "X-Profile", Value: viewer.ProfileID})
	if _, err := m.relay.Send(ctx, msg); err != nil {
		return m.snapshot(s), errors.Wrap(err, "create listing")
	}

	return m.afterAction(ctx, s)
}

// afterAction refreshes the market before reloading so the view joins the post-action order book.
func (m *Manager) afterAction(ctx context.Context, s *Session) (Snapshot, error) {
	m.viewer.RefreshMarket(ctx)
	return m.reload(ctx, s)
}

// Close drops the session and its profile cache.
func (m *Manager) Close(sessionID string) error {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	open := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	metrics.SetOpenSessions(open)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how many were closed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	closed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			closed++
		}
	}
	open := len(m.sessions)
	m.mu.Unlock()

	if closed > 0 {
		metrics.SetOpenSessions(open)
		m.logger.Debug("idle view sessions closed", zap.Int("count", closed))
	}
	return closed
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) session(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "%q", id)
	}
	return s, nil
}

func (m *Manager) snapshot(s *Session) Snapshot {
	state, viewer := m.state.Snapshot(), m.viewer.Viewer()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = m.now()

	return s.deriveLocked(state, viewer, m.cfg.EscrowAddress)
}
