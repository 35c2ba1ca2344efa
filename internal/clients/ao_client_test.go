package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAOClient(t *testing.T, url string, retries int) *AOClient {
	t.Helper()
	c, err := NewAOClient(AOConfig{
		ComputeUnitURL: url,
		Timeout:        2 * time.Second,
		ReadsPerSecond: 1000,
		Retries:        retries,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestAOClient_Read(t *testing.T) {
	var got dryRunMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dry-run", r.URL.Path)
		assert.Equal(t, "proc-1", r.URL.Query().Get("process-id"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"Messages":[{"Data":"{\"Name\":\"Market\",\"Orderbook\":[]}"}]}`))
	}))
	defer srv.Close()

	c := newTestAOClient(t, srv.URL, 0)
	raw, err := c.Read(context.Background(), ReadRequest{
		ProcessID: "proc-1",
		Action:    "Info",
		Data:      map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name":"Market","Orderbook":[]}`, string(raw))

	assert.Equal(t, "proc-1", got.Target)
	assert.Equal(t, `{"k":"v"}`, got.Data)
	assert.Contains(t, got.Tags, Tag{Name: "Action", Value: "Info"})
	assert.Contains(t, got.Tags, Tag{Name: "Data-Protocol", Value: "ao"})
}

func TestAOClient_ReadPlainData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Messages":[{"Data":"hello"}]}`))
	}))
	defer srv.Close()

	c := newTestAOClient(t, srv.URL, 0)
	raw, err := c.Read(context.Background(), ReadRequest{ProcessID: "p", Action: "Ping"})
	require.NoError(t, err)
	assert.Equal(t, `"hello"`, string(raw))
}

func TestAOClient_ReadErrors(t *testing.T) {
	t.Run("empty messages", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Messages":[]}`))
		}))
		defer srv.Close()

		_, err := newTestAOClient(t, srv.URL, 0).Read(context.Background(), ReadRequest{ProcessID: "p", Action: "Info"})
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})

	t.Run("process error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Error":"out of memory","Messages":[]}`))
		}))
		defer srv.Close()

		_, err := newTestAOClient(t, srv.URL, 0).Read(context.Background(), ReadRequest{ProcessID: "p", Action: "Info"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of memory")
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestAOClient(t, srv.URL, 3).Read(context.Background(), ReadRequest{ProcessID: "p", Action: "Info"})
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("server error is retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 2 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"Messages":[{"Data":"{}"}]}`))
		}))
		defer srv.Close()

		raw, err := newTestAOClient(t, srv.URL, 2).Read(context.Background(), ReadRequest{ProcessID: "p", Action: "Info"})
		require.NoError(t, err)
		assert.Equal(t, "{}", string(raw))
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("missing process id", func(t *testing.T) {
		_, err := newTestAOClient(t, "http://localhost", 0).Read(context.Background(), ReadRequest{Action: "Info"})
		assert.Error(t, err)
	})
}

func TestNewAOClient_RequiresURL(t *testing.T) {
	_, err := NewAOClient(AOConfig{}, zap.NewNop())
	assert.Error(t, err)
}
