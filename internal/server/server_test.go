package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/pkg/core"
	"networth/pkg/networth"
)

type stubAggregator struct {
	snap  *networth.Snapshot
	calls int
	panic bool
}

func (s *stubAggregator) Aggregate(context.Context) *networth.Snapshot {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.snap
}

func testConfig() *core.Config {
	return core.DefaultConfig().
		WithCredentials(&core.Credentials{APIKey: "k", SecretKey: "s"})
}

// decodeSnapshot asserts the body is valid JSON carrying every numeric key.
func decodeSnapshot(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var fields map[string]any
	require.NoError(t, sonic.Unmarshal(body, &fields))
	for _, key := range []string{
		"spotUsdt", "futuresCrossUsdt", "futuresIsolatedUsdt",
		"futuresTotalUsdt", "botUsdt", "totalUsdt",
	} {
		v, ok := fields[key]
		require.True(t, ok, "missing field %s", key)
		_, isNumber := v.(float64)
		assert.True(t, isNumber, "field %s is not numeric", key)
	}
	return fields
}

func TestServer_GetNetWorth(t *testing.T) {
	agg := &stubAggregator{snap: &networth.Snapshot{
		SpotUsdt:         100,
		FuturesCrossUsdt: 50,
		FuturesTotalUsdt: 50,
		TotalUsdt:        150,
	}}
	srv := New(testConfig(), agg, zerolog.Nop())

	for _, path := range []string{"/", "/networth"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			fields := decodeSnapshot(t, rec.Body.Bytes())
			assert.Equal(t, 100.0, fields["spotUsdt"])
			assert.Equal(t, 150.0, fields["totalUsdt"])
			assert.NotContains(t, fields, "error")
		})
	}
	assert.Equal(t, 2, agg.calls)
}

func TestServer_PostIsRejectedWithoutAggregating(t *testing.T) {
	agg := &stubAggregator{snap: &networth.Snapshot{}}
	srv := New(testConfig(), agg, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/networth", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	fields := decodeSnapshot(t, rec.Body.Bytes())
	assert.Contains(t, fields["error"], "GET")
	assert.Zero(t, agg.calls)
}

func TestServer_MissingCredentials(t *testing.T) {
	agg := &stubAggregator{snap: &networth.Snapshot{}}
	cfg := core.DefaultConfig() // no credentials
	srv := New(cfg, agg, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networth", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	fields := decodeSnapshot(t, rec.Body.Bytes())
	assert.Contains(t, fields["error"], "BINANCE_API_KEY")
	assert.Zero(t, agg.calls)
}

func TestServer_PanicYieldsWellFormedBody(t *testing.T) {
	agg := &stubAggregator{panic: true}
	srv := New(testConfig(), agg, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/networth", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	fields := decodeSnapshot(t, rec.Body.Bytes())
	assert.Equal(t, "internal error", fields["error"])
	assert.Equal(t, 0.0, fields["totalUsdt"])
}

func TestServer_Healthz(t *testing.T) {
	srv := New(testConfig(), &stubAggregator{snap: &networth.Snapshot{}}, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
