package assetview

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
)

type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) GetAsset(ctx context.Context, assetID string, market *domain.MarketInfo) (domain.Asset, error) {
	args := m.Called(ctx, assetID, market)
	asset, _ := args.Get(0).(domain.Asset)
	return asset, args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	args := m.Called(ctx, ids)
	profiles, _ := args.Get(0).([]domain.Profile)
	return profiles, args.Error(1)
}

type mockRelay struct {
	mock.Mock
}

func (m *mockRelay) Send(ctx context.Context, msg clients.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type fakeViewer struct {
	mu        sync.Mutex
	viewer    domain.Viewer
	refreshes int
}

func (f *fakeViewer) Viewer() domain.Viewer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewer
}

func (f *fakeViewer) RefreshMarket(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

type fakeState struct {
	state store.State
}

func (f *fakeState) Snapshot() store.State { return f.state }

func (f *fakeState) Market() *domain.MarketInfo { return f.state.Market }

// chainGateway serves market and asset Info replies; the market reply can be swapped mid-test.
type chainGateway struct {
	mu     sync.Mutex
	market json.RawMessage
	assets map[string]json.RawMessage
}

func (g *chainGateway) setMarket(raw json.RawMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.market = raw
}

func (g *chainGateway) Read(_ context.Context, req clients.ReadRequest) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if req.ProcessID == marketPID {
		return g.market, nil
	}
	if raw, ok := g.assets[req.ProcessID]; ok {
		return raw, nil
	}
	return nil, clients.ErrEmptyPayload
}
