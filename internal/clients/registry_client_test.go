package clients

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bazar/internal/domain"
)

func TestRegistryClient_GetProfiles(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Read", mock.Anything, mock.MatchedBy(func(req ReadRequest) bool {
		return req.ProcessID == "registry" && req.Action == "Read-Profiles"
	})).Return(json.RawMessage(`[{"ProfileId":"p1","Username":"one"}]`), nil).Once()

	c := NewRegistryClient(gw, "registry")
	profiles, err := c.GetProfiles(context.Background(), []string{"p1", "missing"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "one", profiles[0].Username)
	gw.AssertExpectations(t)
}

func TestRegistryClient_GetProfilesEmpty(t *testing.T) {
	gw := new(mockGateway)
	c := NewRegistryClient(gw, "registry")

	profiles, err := c.GetProfiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
	gw.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestRegistryClient_GetProfileByID(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Read", mock.Anything, ReadRequest{ProcessID: "pid", Action: "Info"}).
		Return(json.RawMessage(`{"Profile":{"UserName":"bob"}}`), nil).Once()
	gw.On("Read", mock.Anything, ReadRequest{ProcessID: "gone", Action: "Info"}).
		Return(nil, errors.Wrap(ErrEmptyPayload, "read")).Once()

	c := NewRegistryClient(gw, "registry")
	p, err := c.GetProfileByID(context.Background(), "pid")
	require.NoError(t, err)
	assert.Equal(t, domain.Profile{ID: "pid", Username: "bob"}, p)

	_, err = c.GetProfileByID(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStampsClient(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Read", mock.Anything, mock.MatchedBy(func(req ReadRequest) bool {
		return req.Action == "Read-Stamp-Counts"
	})).Return(json.RawMessage(`{"a":{"total":2,"vouched":1}}`), nil).Once()
	gw.On("Read", mock.Anything, mock.MatchedBy(func(req ReadRequest) bool {
		return req.Action == "Read-Has-Stamped"
	})).Return(json.RawMessage(`{"a":true}`), nil).Once()

	c := NewStampsClient(gw, "stamps")
	counts, err := c.GetStamps(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, domain.StampCount{Total: 2, Vouched: 1}, counts["a"])

	checks, err := c.HasStamped(context.Background(), "wallet", []string{"a"})
	require.NoError(t, err)
	assert.True(t, checks["a"])

	_, err = c.HasStamped(context.Background(), "", []string{"a"})
	assert.Error(t, err)
	gw.AssertExpectations(t)
}

func TestAssetClient_GetAsset(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Read", mock.Anything, ReadRequest{ProcessID: "a1", Action: "Info"}).
		Return(json.RawMessage(`{"Name":"Art","Balances":{"w1":"1"}}`), nil).Once()

	market := &domain.MarketInfo{Orderbook: []domain.OrderbookEntry{
		{Pair: []string{"a1", "tok"}, Orders: []domain.MarketOrder{{ID: "o1", Creator: "p1"}}},
		{Pair: []string{"a2", "tok"}, Orders: []domain.MarketOrder{{ID: "o2"}}},
	}}

	asset, err := NewAssetClient(gw).GetAsset(context.Background(), "a1", market)
	require.NoError(t, err)
	assert.Equal(t, "Art", asset.Title)
	require.Len(t, asset.Orders, 1)
	assert.Equal(t, "o1", asset.Orders[0].ID)
	assert.Equal(t, "tok", asset.Orders[0].Currency)
}
