package binance

import (
	"context"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decCtx is the arithmetic context for all balance math. 25 digits is far
// beyond what any exchange-reported quantity carries.
var decCtx = apd.BaseContext.WithPrecision(25)

// bridgeAssets are the intermediate assets tried, in order, when an asset
// has no direct pair against the quote currency. Most illiquid listings
// trade against at least one of them.
var bridgeAssets = [...]string{"BTC", "BNB"}

// PriceTable maps trading-pair symbols (asset+quote concatenation, e.g.
// "ETHUSDT") to their last price. It is built once per aggregation pass and
// never mutated afterwards.
type PriceTable map[string]apd.Decimal

type tickerPrice struct {
	Symbol string      `json:"symbol"`
	Price  apd.Decimal `json:"price"`
}

// FetchPrices retrieves the full public price list. The endpoint is
// unauthenticated. Callers decide whether a failure is fatal or degrades to
// an empty table (Config.StrictPrices).
func (c *Client) FetchPrices(ctx context.Context) (PriceTable, error) {
	var tickers []tickerPrice
	if err := c.get(ctx, hostAPI, pathTickerPrice, nil, false, &tickers); err != nil {
		return PriceTable{}, fmt.Errorf("fetch prices: %w", err)
	}

	table := make(PriceTable, len(tickers))
	for _, t := range tickers {
		table[t.Symbol] = t.Price
	}
	return table, nil
}

// PriceIn resolves the value of one unit of asset in the quote currency.
// Resolution order: identity, direct pair, then one hop through each bridge
// asset. An unresolvable asset is worth 0; that is a silent degradation,
// never an error, so a caller's summation keeps going.
func (t PriceTable) PriceIn(asset, quote string) apd.Decimal {
	if asset == quote {
		var one apd.Decimal
		one.SetInt64(1)
		return one
	}

	if direct, ok := t[asset+quote]; ok {
		return direct
	}

	for _, bridge := range bridgeAssets {
		leg, ok := t[asset+bridge]
		if !ok {
			continue
		}
		bridgeQuote, ok := t[bridge+quote]
		if !ok {
			continue
		}
		var out apd.Decimal
		if _, err := decCtx.Mul(&out, &leg, &bridgeQuote); err != nil {
			continue
		}
		return out
	}

	return apd.Decimal{}
}
