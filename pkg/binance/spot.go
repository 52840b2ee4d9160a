package binance

import (
	"context"

	"github.com/cockroachdb/apd/v3"
)

// spotBalance is one asset row from the spot account endpoint.
type spotBalance struct {
	Asset  string      `json:"asset"`
	Free   apd.Decimal `json:"free"`
	Locked apd.Decimal `json:"locked"`
}

// spotAccount is the raw spot account response.
type spotAccount struct {
	Balances []spotBalance `json:"balances"`
}

func (c *Client) spotAccount(ctx context.Context) (*spotAccount, error) {
	var account spotAccount
	if err := c.get(ctx, hostAPI, pathSpotAccount, nil, true, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SpotTotal fetches the spot account and values every positive balance in
// the quote currency via the price table. Any failure degrades to zero at
// this boundary; it never propagates to the caller.
func (c *Client) SpotTotal(ctx context.Context, prices PriceTable) apd.Decimal {
	account, err := c.spotAccount(ctx)
	if err != nil {
		c.degrade(pathSpotAccount, err)
		return apd.Decimal{}
	}
	return sumSpotBalances(account.Balances, prices, c.cfg.QuoteAsset)
}

// sumSpotBalances converts and sums balances. Entries with a non-positive
// total (free+locked) are discarded before conversion; assets with no price
// path contribute zero.
func sumSpotBalances(balances []spotBalance, prices PriceTable, quote string) apd.Decimal {
	var sum apd.Decimal
	for i := range balances {
		b := &balances[i]

		var total apd.Decimal
		if _, err := decCtx.Add(&total, &b.Free, &b.Locked); err != nil {
			continue
		}
		if total.Sign() <= 0 {
			continue
		}

		price := prices.PriceIn(b.Asset, quote)

		var value apd.Decimal
		if _, err := decCtx.Mul(&value, &total, &price); err != nil {
			continue
		}
		if _, err := decCtx.Add(&sum, &sum, &value); err != nil {
			continue
		}
	}
	return sum
}
