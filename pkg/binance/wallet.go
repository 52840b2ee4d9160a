package binance

import (
	"context"

	"github.com/cockroachdb/apd/v3"
)

// Wallet names as the unified balance endpoint reports them. Matching is
// exact; unrecognized wallets still count toward the grand total.
const (
	WalletSpot        = "Spot"
	WalletUSDMFutures = "USDT-M Futures"
	WalletTradingBots = "Trading Bots"
)

// WalletEntry is one row of the unified wallet balance endpoint. Balance is
// already expressed in the requested quote currency.
type WalletEntry struct {
	WalletName string      `json:"walletName"`
	Balance    apd.Decimal `json:"balance"`
	Activate   bool        `json:"activate"`
}

// WalletBalances fetches the unified wallet balance list with every entry
// pre-converted to the configured quote asset. Failures, including a key
// without the wallet permission scope, degrade to an empty list so the
// caller falls back to per-account fetching.
func (c *Client) WalletBalances(ctx context.Context) []WalletEntry {
	query := map[string]string{"quoteAsset": c.cfg.QuoteAsset}

	var entries []WalletEntry
	if err := c.get(ctx, hostAPI, pathWalletBalance, query, true, &entries); err != nil {
		c.degrade(pathWalletBalance, err)
		return nil
	}
	return entries
}

// WalletSummary buckets the unified wallet entries into the categories the
// aggregate response reports.
type WalletSummary struct {
	// Spot is the "Spot" wallet balance.
	Spot apd.Decimal
	// Futures is the "USDT-M Futures" wallet balance.
	Futures apd.Decimal
	// Bots is the "Trading Bots" wallet balance.
	Bots apd.Decimal
	// Total sums every active entry with a positive balance, including
	// wallets outside the named buckets. It supersedes manual summation.
	Total apd.Decimal
}

// SummarizeWallets buckets entries by wallet name and computes the active
// grand total.
func SummarizeWallets(entries []WalletEntry) WalletSummary {
	var summary WalletSummary
	for i := range entries {
		e := &entries[i]

		switch e.WalletName {
		case WalletSpot:
			summary.Spot = e.Balance
		case WalletUSDMFutures:
			summary.Futures = e.Balance
		case WalletTradingBots:
			summary.Bots = e.Balance
		}

		if e.Activate && e.Balance.Sign() > 0 {
			if _, err := decCtx.Add(&summary.Total, &summary.Total, &e.Balance); err != nil {
				continue
			}
		}
	}
	return summary
}
