package assetview

import (
	"sync"
	"time"

	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/services/viewmodel"
	"github.com/vadiminshakov/bazar/internal/store"
)

// Session is one open asset detail view.
// Profiles resolved for the view are cached here and dropped with the session.
type Session struct {
	id      string
	assetID string

	mu            sync.Mutex
	asset         *domain.Asset
	profiles      map[string]*domain.Profile
	tab           Tab
	ownersModal   bool
	listingsModal bool
	reloadGen     uint64
	lastSeen      time.Time
}

func newSession(id, assetID string, now time.Time) *Session {
	return &Session{
		id:       id,
		assetID:  assetID,
		profiles: make(map[string]*domain.Profile),
		tab:      TabMarket,
		lastSeen: now,
	}
}

// Snapshot is the serializable state of a session.
type Snapshot struct {
	SessionID         string              `json:"sessionId"`
	AssetID           string              `json:"assetId"`
	Tab               Tab                 `json:"tab"`
	OwnersModalOpen   bool                `json:"ownersModalOpen"`
	ListingsModalOpen bool                `json:"listingsModalOpen"`
	Loading           bool                `json:"loading"`
	View              viewmodel.AssetView `json:"view"`
}

// deriveLocked builds the view and enforces the modal rules. Callers hold s.mu.
func (s *Session) deriveLocked(state store.State, viewer domain.Viewer, escrow string) Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		AssetID:   s.assetID,
		Tab:       s.tab,
		Loading:   s.asset == nil,
	}
	if s.asset == nil {
		return snap
	}

	// orders follow the latest market snapshot, not the one seen at load time
	asset := s.asset
	if state.Market != nil {
		joined := *s.asset
		joined.Orders = state.Market.OrdersFor(s.assetID)
		asset = &joined
	}

	snap.View = viewmodel.BuildAssetView(asset, state, s.profiles, viewer, escrow)
	if len(snap.View.Listings) == 0 {
		s.listingsModal = false
	}
	if len(snap.View.Owners) == 0 {
		s.ownersModal = false
	}
	snap.OwnersModalOpen = s.ownersModal
	snap.ListingsModalOpen = s.listingsModal

	return snap
}

// missingProfilesLocked returns associated addresses not yet in the session cache. Callers hold s.mu.
func (s *Session) missingProfilesLocked(asset *domain.Asset) []string {
	var missing []string
	for _, addr := range viewmodel.AssociatedAddresses(asset) {
		if _, ok := s.profiles[addr]; !ok {
			missing = append(missing, addr)
		}
	}
	return missing
}
