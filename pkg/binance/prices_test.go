package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDec(t *testing.T, s string) apd.Decimal {
	t.Helper()
	var d apd.Decimal
	_, _, err := d.SetString(s)
	require.NoError(t, err)
	return d
}

func assertDec(t *testing.T, want string, got apd.Decimal) {
	t.Helper()
	w := mustDec(t, want)
	assert.Zero(t, got.Cmp(&w), "want %s, got %s", want, got.Text('f'))
}

func TestPriceTable_PriceIn(t *testing.T) {
	table := PriceTable{
		"ETHUSDT": mustDec(t, "3000"),
		"ALTBTC":  mustDec(t, "0.001"),
		"BTCUSDT": mustDec(t, "50000"),
		"FARBNB":  mustDec(t, "2"),
		"BNBUSDT": mustDec(t, "600"),
	}

	tests := []struct {
		name  string
		asset string
		want  string
	}{
		{name: "identity", asset: "USDT", want: "1"},
		{name: "direct pair", asset: "ETH", want: "3000"},
		{name: "one hop through BTC", asset: "ALT", want: "50"},
		{name: "one hop through BNB", asset: "FAR", want: "1200"},
		{name: "no path", asset: "OBSCURE", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDec(t, tt.want, table.PriceIn(tt.asset, "USDT"))
		})
	}
}

func TestPriceTable_PriceIn_IdentityWithEmptyTable(t *testing.T) {
	assertDec(t, "1", PriceTable{}.PriceIn("USDT", "USDT"))
}

func TestPriceTable_PriceIn_BridgeOrder(t *testing.T) {
	// Both bridges resolve; the BTC leg wins because it is tried first.
	table := PriceTable{
		"ALTBTC":  mustDec(t, "0.001"),
		"BTCUSDT": mustDec(t, "50000"),
		"ALTBNB":  mustDec(t, "100"),
		"BNBUSDT": mustDec(t, "600"),
	}
	assertDec(t, "50", table.PriceIn("ALT", "USDT"))
}

func TestPriceTable_PriceIn_BrokenBridgeFallsThrough(t *testing.T) {
	// The BTC leg exists but BTCUSDT does not, so resolution continues to BNB.
	table := PriceTable{
		"ALTBTC":  mustDec(t, "0.001"),
		"ALTBNB":  mustDec(t, "0.1"),
		"BNBUSDT": mustDec(t, "600"),
	}
	assertDec(t, "60", table.PriceIn("ALT", "USDT"))
}

func TestClient_FetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathTickerPrice, r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"ETHUSDT","price":"3000.00000000"},
			{"symbol":"BTCUSDT","price":"50000.12"}
		]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, server.URL)

	table, err := c.FetchPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 2)
	assertDec(t, "3000", table.PriceIn("ETH", "USDT"))
	assertDec(t, "50000.12", table.PriceIn("BTC", "USDT"))
}

func TestClient_FetchPrices_FailureReturnsEmptyTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, server.URL)

	table, err := c.FetchPrices(context.Background())
	require.Error(t, err)
	assert.Empty(t, table)
	assertDec(t, "0", table.PriceIn("ETH", "USDT"))
}
