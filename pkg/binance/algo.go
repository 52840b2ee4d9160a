package binance

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// algoOrder is one open algorithmic order. The spot and futures algo
// endpoints disagree on field names across API revisions, so all known
// spellings are accepted and reconciled.
type algoOrder struct {
	InvestedQty   apd.Decimal `json:"investedQty"`
	TotalInvested apd.Decimal `json:"totalInvested"`
	Amount        apd.Decimal `json:"amount"`
	UnrealizedPnl apd.Decimal `json:"unrealizedPnl"`
	Pnl           apd.Decimal `json:"pnl"`
}

// invested returns the allocated capital under whichever field the endpoint
// populated.
func (o *algoOrder) invested() *apd.Decimal {
	if !o.InvestedQty.IsZero() {
		return &o.InvestedQty
	}
	if !o.TotalInvested.IsZero() {
		return &o.TotalInvested
	}
	return &o.Amount
}

// unrealized returns the open P&L under whichever field the endpoint
// populated.
func (o *algoOrder) unrealized() *apd.Decimal {
	if !o.UnrealizedPnl.IsZero() {
		return &o.UnrealizedPnl
	}
	return &o.Pnl
}

// algoOrderList accepts both response shapes: a bare JSON array and an
// object wrapping the array under "orders".
type algoOrderList []algoOrder

func (l *algoOrderList) UnmarshalJSON(data []byte) error {
	var direct []algoOrder
	if err := sonic.Unmarshal(data, &direct); err == nil {
		*l = direct
		return nil
	}
	var wrapped struct {
		Orders []algoOrder `json:"orders"`
	}
	if err := sonic.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*l = wrapped.Orders
	return nil
}

func (c *Client) algoOpenOrders(ctx context.Context, path string) ([]algoOrder, error) {
	var orders algoOrderList
	if err := c.get(ctx, hostAPI, path, nil, true, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// BotTotal values all open algo/bot orders across the spot and futures algo
// endpoints as one figure. The two endpoints are fetched concurrently and
// each degrades to zero independently.
func (c *Client) BotTotal(ctx context.Context) apd.Decimal {
	paths := [...]string{pathAlgoSpotOrders, pathAlgoFutOrders}
	totals := make([]apd.Decimal, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			orders, err := c.algoOpenOrders(ctx, path)
			if err != nil {
				c.degrade(path, err)
				return
			}
			totals[i] = sumAlgoOrders(orders)
		}(i, path)
	}
	wg.Wait()

	var sum apd.Decimal
	for i := range totals {
		if _, err := decCtx.Add(&sum, &sum, &totals[i]); err != nil {
			continue
		}
	}
	return sum
}

// sumAlgoOrders totals invested capital plus unrealized P&L per order,
// counting only orders whose combined value is positive.
func sumAlgoOrders(orders []algoOrder) apd.Decimal {
	var sum apd.Decimal
	for i := range orders {
		o := &orders[i]

		var value apd.Decimal
		if _, err := decCtx.Add(&value, o.invested(), o.unrealized()); err != nil {
			continue
		}
		if value.Sign() <= 0 {
			continue
		}
		if _, err := decCtx.Add(&sum, &sum, &value); err != nil {
			continue
		}
	}
	return sum
}
