package binance

import (
	"context"

	"github.com/cockroachdb/apd/v3"
)

// flexBool unmarshals both JSON booleans and the string forms "true"/"false"
// that some futures endpoints emit.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `true`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// futuresPosition is one position row from the futures account endpoint.
// Only the isolated-margin fields matter here.
type futuresPosition struct {
	Isolated         flexBool    `json:"isolated"`
	IsolatedWallet   apd.Decimal `json:"isolatedWallet"`
	UnrealizedProfit apd.Decimal `json:"unrealizedProfit"`
}

// futuresAccount is the raw futures account response.
type futuresAccount struct {
	TotalMarginBalance apd.Decimal       `json:"totalMarginBalance"`
	Positions          []futuresPosition `json:"positions"`
}

// futuresAssetBalance is one row of the simple futures balance endpoint.
type futuresAssetBalance struct {
	Asset   string      `json:"asset"`
	Balance apd.Decimal `json:"balance"`
}

// FuturesSnapshot is the normalized derivatives account value, split into
// cross-margin and isolated-margin components.
type FuturesSnapshot struct {
	Cross    apd.Decimal
	Isolated apd.Decimal
	Total    apd.Decimal
}

func (c *Client) futuresAccount(ctx context.Context) (*futuresAccount, error) {
	var account futuresAccount
	if err := c.get(ctx, hostFutures, pathFuturesAccount, nil, true, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// FuturesTotals fetches the futures account and reports the cross-margin
// balance, the isolated contribution, and their sum. Any failure degrades
// to an all-zero snapshot at this boundary.
func (c *Client) FuturesTotals(ctx context.Context) FuturesSnapshot {
	account, err := c.futuresAccount(ctx)
	if err != nil {
		c.degrade(pathFuturesAccount, err)
		return FuturesSnapshot{}
	}
	return summarizeFutures(account)
}

// summarizeFutures derives the snapshot. Isolated is the sum of
// isolatedWallet+unrealizedProfit over isolated-mode positions; unrealized
// losses reduce it, never clamped.
func summarizeFutures(account *futuresAccount) FuturesSnapshot {
	snap := FuturesSnapshot{Cross: account.TotalMarginBalance}

	for i := range account.Positions {
		p := &account.Positions[i]
		if !p.Isolated {
			continue
		}
		var value apd.Decimal
		if _, err := decCtx.Add(&value, &p.IsolatedWallet, &p.UnrealizedProfit); err != nil {
			continue
		}
		if _, err := decCtx.Add(&snap.Isolated, &snap.Isolated, &value); err != nil {
			continue
		}
	}

	if _, err := decCtx.Add(&snap.Total, &snap.Cross, &snap.Isolated); err != nil {
		snap.Total = snap.Cross
	}
	return snap
}

// FuturesAssetBalance returns the simple per-asset futures balance for one
// asset, from the lighter /fapi/v2/balance variant. Unlike the boundary
// fetchers this one propagates errors; it serves callers that want the raw
// figure without the position breakdown.
func (c *Client) FuturesAssetBalance(ctx context.Context, asset string) (apd.Decimal, error) {
	var rows []futuresAssetBalance
	if err := c.get(ctx, hostFutures, pathFuturesBalance, nil, true, &rows); err != nil {
		return apd.Decimal{}, err
	}
	for i := range rows {
		if rows[i].Asset == asset {
			return rows[i].Balance, nil
		}
	}
	return apd.Decimal{}, nil
}
