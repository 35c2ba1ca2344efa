package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRelayClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "secret", time.Second, zap.NewNop())
	id, err := c.Send(context.Background(), CancelOrderMessage("market", "order-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "market", got.ProcessID)
	assert.Equal(t, "Cancel-Order", got.Action)
	assert.Equal(t, []Tag{{Name: "Order-Id", Value: "order-1"}}, got.Tags)
}

func TestRelayClient_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewRelayClient(srv.URL, "", time.Second, zap.NewNop())
	_, err := c.Send(context.Background(), CancelOrderMessage("market", "order-1"))
	assert.Error(t, err)
}

func TestRelayClient_NotConfigured(t *testing.T) {
	c := NewRelayClient("", "", time.Second, zap.NewNop())
	_, err := c.Send(context.Background(), CancelOrderMessage("market", "order-1"))
	assert.Error(t, err)
}

func TestCreateListingMessage(t *testing.T) {
	msg := CreateListingMessage("asset", "market", "token", decimal.NewFromInt(10), decimal.NewFromInt(5000000))
	assert.Equal(t, "asset", msg.ProcessID)
	assert.Equal(t, "Transfer", msg.Action)
	assert.Contains(t, msg.Tags, Tag{Name: "Recipient", Value: "market"})
	assert.Contains(t, msg.Tags, Tag{Name: "X-Price", Value: "5000000"})
}

func TestUpdateProfileMessage(t *testing.T) {
	msg, err := UpdateProfileMessage("pid", ProfileUpdate{DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Update-Profile", msg.Action)
	assert.JSONEq(t, `{"DisplayName":"Alice"}`, msg.Data)
}
