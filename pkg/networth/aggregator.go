// Package networth orchestrates the account fetchers into one consolidated
// net-worth snapshot per request.
package networth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"networth/pkg/binance"
	"networth/pkg/core"
)

// Accounts is the fetcher surface the aggregator orchestrates. The boundary
// methods never fail: each converts its own upstream errors to zero values.
// FetchPrices is the exception; the aggregator applies the configured
// strict-or-degrade policy to its error.
type Accounts interface {
	FetchPrices(ctx context.Context) (binance.PriceTable, error)
	WalletBalances(ctx context.Context) []binance.WalletEntry
	SpotTotal(ctx context.Context, prices binance.PriceTable) apd.Decimal
	FuturesTotals(ctx context.Context) binance.FuturesSnapshot
	BotTotal(ctx context.Context) apd.Decimal
}

// Snapshot is the consolidated net-worth response. Every numeric field is
// always present, zeroed on failure, because downstream consumers read the
// keys unconditionally. Constructed fresh per request, never reused.
type Snapshot struct {
	SpotUsdt            float64 `json:"spotUsdt"`
	FuturesCrossUsdt    float64 `json:"futuresCrossUsdt"`
	FuturesIsolatedUsdt float64 `json:"futuresIsolatedUsdt"`
	FuturesTotalUsdt    float64 `json:"futuresTotalUsdt"`
	BotUsdt             float64 `json:"botUsdt"`
	TotalUsdt           float64 `json:"totalUsdt"`
	Error               string  `json:"error,omitempty"`
}

// strategy is the explicit orchestration decision for one pass. Keeping it
// as state rather than duplicated branches stops the two paths drifting.
type strategy int

const (
	strategyUnifiedWallet strategy = iota
	strategyPerAccount
)

func (s strategy) String() string {
	if s == strategyUnifiedWallet {
		return "unified-wallet"
	}
	return "per-account"
}

// Aggregator produces net-worth snapshots. One instance serves many
// requests; it holds no per-request state.
type Aggregator struct {
	accounts Accounts
	cfg      *core.Config
	logger   zerolog.Logger
}

// Option is a functional option for configuring the Aggregator.
type Option func(*Options)

// Options holds optional Aggregator dependencies.
type Options struct {
	Logger zerolog.Logger
}

// WithLogger returns an option that sets the logger for the aggregator.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates an Aggregator over the given account surface.
func New(accounts Accounts, cfg *core.Config, opts ...Option) *Aggregator {
	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Aggregator{
		accounts: accounts,
		cfg:      cfg,
		logger:   options.Logger,
	}
}

// Aggregate runs one aggregation pass under the configured time budget.
// On budget expiry the in-flight fetches are abandoned and a well-formed
// zeroed snapshot describing the timeout is returned immediately; caller
// cancellation is reported under its own descriptor.
func (a *Aggregator) Aggregate(ctx context.Context) *Snapshot {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Budget)
	defer cancel()

	start := time.Now()
	done := make(chan *Snapshot, 1)
	go func() {
		done <- a.collect(ctx)
	}()

	select {
	case snap := <-done:
		a.logger.Debug().Dur("elapsed", time.Since(start)).Msg("aggregation complete")
		return snap
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.logger.Warn().Msg("aggregation cancelled by caller")
			return &Snapshot{Error: core.ErrAggregationCancelled.Error()}
		}
		a.logger.Warn().Dur("budget", a.cfg.Budget).Msg("aggregation budget exceeded")
		return &Snapshot{Error: core.ErrBudgetExceeded.Error()}
	}
}

// collect decides the orchestration strategy and runs it. The unified
// wallet endpoint is preferred; an empty result (endpoint unavailable,
// permission denied, or genuinely empty) falls back to per-account fetches.
func (a *Aggregator) collect(ctx context.Context) *Snapshot {
	entries := a.accounts.WalletBalances(ctx)

	strat := strategyPerAccount
	if len(entries) > 0 {
		strat = strategyUnifiedWallet
	}
	a.logger.Debug().Stringer("strategy", strat).Int("wallets", len(entries)).Msg("orchestration strategy chosen")

	if strat == strategyUnifiedWallet {
		return a.fromWallet(entries)
	}
	return a.fromAccounts(ctx)
}

// fromWallet derives every category from the unified wallet buckets. The
// endpoint does not distinguish isolated margin, so that category is 0, and
// its active-entry grand total supersedes manual summation.
func (a *Aggregator) fromWallet(entries []binance.WalletEntry) *Snapshot {
	summary := binance.SummarizeWallets(entries)
	return &Snapshot{
		SpotUsdt:            toFloat(&summary.Spot),
		FuturesCrossUsdt:    toFloat(&summary.Futures),
		FuturesIsolatedUsdt: 0,
		FuturesTotalUsdt:    toFloat(&summary.Futures),
		BotUsdt:             toFloat(&summary.Bots),
		TotalUsdt:           toFloat(&summary.Total),
	}
}

// fromAccounts runs the per-account fetchers concurrently. Each task
// settles to its own slot with a zero default, so one failing never cancels
// or skews the siblings.
func (a *Aggregator) fromAccounts(ctx context.Context) *Snapshot {
	var (
		wg       sync.WaitGroup
		spot     apd.Decimal
		futures  binance.FuturesSnapshot
		bot      apd.Decimal
		priceErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		prices, err := a.accounts.FetchPrices(ctx)
		if err != nil {
			priceErr = err
			if a.cfg.StrictPrices {
				return
			}
			// Degraded mode: conversions against the empty table are
			// zero, but quote-asset balances still count at parity.
		}
		spot = a.accounts.SpotTotal(ctx, prices)
	}()
	go func() {
		defer wg.Done()
		futures = a.accounts.FuturesTotals(ctx)
	}()
	go func() {
		defer wg.Done()
		bot = a.accounts.BotTotal(ctx)
	}()
	wg.Wait()

	if a.cfg.StrictPrices && priceErr != nil {
		a.logger.Error().Err(priceErr).Msg("price feed unavailable")
		return &Snapshot{Error: fmt.Sprintf("price feed unavailable: %v", priceErr)}
	}

	snap := &Snapshot{
		SpotUsdt:            toFloat(&spot),
		FuturesCrossUsdt:    toFloat(&futures.Cross),
		FuturesIsolatedUsdt: toFloat(&futures.Isolated),
		BotUsdt:             toFloat(&bot),
	}
	snap.FuturesTotalUsdt = snap.FuturesCrossUsdt + snap.FuturesIsolatedUsdt
	snap.TotalUsdt = snap.SpotUsdt + snap.FuturesTotalUsdt + snap.BotUsdt
	return snap
}

func toFloat(d *apd.Decimal) float64 {
	f, err := d.Float64()
	if err != nil {
		return 0
	}
	return f
}
