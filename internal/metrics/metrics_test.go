package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	tests := map[string]string{
		"/":                                 "/",
		"/profile/abc":                      "/profile/:address",
		"/profile/abc/assets":               "/profile/:address/:tab",
		"/api/status":                       "/api/status",
		"/api/assets/xyz/sessions":          "/api/assets/:id/sessions",
		"/api/sessions/123":                 "/api/sessions/:id",
		"/api/sessions/123/tab":             "/api/sessions/:id/tab",
		"/api/sessions/123/orders/o/cancel": "/api/sessions/:id/orders",
		"/store/stream":                     "/store",
	}

	for in, want := range tests {
		assert.Equal(t, want, canonicalPath(in), in)
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	out := httptest.NewRecorder()
	Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, out.Code)
	return out.Body.String()
}

func TestRecordRefresh(t *testing.T) {
	RecordRefresh("market", OutcomeFailure, 10*time.Millisecond)
	RecordRefresh("", OutcomeSkipped, 0)

	body := scrape(t)
	assert.Contains(t, body, `bazar_refresh_runs_total{domain="market",outcome="failure"}`)
	assert.Contains(t, body, `bazar_refresh_runs_total{domain="unknown",outcome="skipped"}`)
	assert.Contains(t, body, `bazar_refresh_duration_seconds_count{domain="market"}`)
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := w.(http.Flusher)
		assert.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t)
	assert.True(t, strings.Contains(body, `bazar_http_requests_total{method="GET",path="/api/status",status="418"} 1`))
}
