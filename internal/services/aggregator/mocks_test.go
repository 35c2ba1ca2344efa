package aggregator

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"golang.org/x/time/rate"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Read(ctx context.Context, req clients.ReadRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockStamps struct {
	mock.Mock
}

func (m *mockStamps) GetStamps(ctx context.Context, ids []string) (map[string]domain.StampCount, error) {
	args := m.Called(ctx, ids)
	counts, _ := args.Get(0).(map[string]domain.StampCount)
	return counts, args.Error(1)
}

func (m *mockStamps) HasStamped(ctx context.Context, viewer string, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, viewer, ids)
	checks, _ := args.Get(0).(map[string]bool)
	return checks, args.Error(1)
}

func read(processID, action string) clients.ReadRequest {
	return clients.ReadRequest{ProcessID: processID, Action: action}
}

// limitedGateway answers by action and waits on a rate limiter first, like the AO client does.
type limitedGateway struct {
	limiter *rate.Limiter
	replies map[string]json.RawMessage
}

func (g *limitedGateway) Read(ctx context.Context, req clients.ReadRequest) (json.RawMessage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return g.replies[req.Action], nil
}
