// Package ratelimit provides token-bucket rate limiting for outbound
// exchange requests, with a shared global budget plus per-host buckets.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a global request budget and independent per-host buckets.
// The spot/SAPI host and the futures host meter request weight separately,
// so exhausting one must not starve the other.
type Limiter struct {
	global   *rate.Limiter
	buckets  sync.Map
	requests int
	period   time.Duration
	metrics  *metrics
}

type metrics struct {
	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// New creates a Limiter allowing the given number of requests per period.
func New(requests int, period time.Duration) *Limiter {
	rps := float64(requests) / period.Seconds()
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(rps), requests),
		requests: requests,
		period:   period,
		metrics:  &metrics{},
	}
}

// Wait blocks until the global limiter admits a request or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	l.metrics.total.Add(1)
	if err := l.global.Wait(ctx); err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	l.metrics.allowed.Add(1)
	return nil
}

// WaitHost blocks until the named host's bucket admits a request or the
// context ends. Buckets are created on demand with the default limit.
func (l *Limiter) WaitHost(ctx context.Context, host string) error {
	l.metrics.total.Add(1)
	if err := l.bucket(host).Wait(ctx); err != nil {
		l.metrics.denied.Add(1)
		return err
	}
	l.metrics.allowed.Add(1)
	return nil
}

// Allow reports whether the global limiter admits a request immediately.
func (l *Limiter) Allow() bool {
	l.metrics.total.Add(1)
	ok := l.global.Allow()
	if ok {
		l.metrics.allowed.Add(1)
	} else {
		l.metrics.denied.Add(1)
	}
	return ok
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	if v, ok := l.buckets.Load(host); ok {
		return v.(*rate.Limiter)
	}
	rps := float64(l.requests) / l.period.Seconds()
	lim := rate.NewLimiter(rate.Limit(rps), l.requests)
	actual, _ := l.buckets.LoadOrStore(host, lim)
	return actual.(*rate.Limiter)
}

// SetLimit updates the global limit to the given requests per period.
func (l *Limiter) SetLimit(requests int, period time.Duration) {
	l.requests = requests
	l.period = period
	l.global.SetLimit(rate.Limit(float64(requests) / period.Seconds()))
}

// Stats is a point-in-time capture of limiter counters.
type Stats struct {
	// Total is the number of admission checks performed.
	Total int64
	// Allowed is the number of requests admitted.
	Allowed int64
	// Denied is the number of requests rejected or cancelled while waiting.
	Denied int64
}

// Stats returns a snapshot of the limiter counters.
func (l *Limiter) Stats() Stats {
	return Stats{
		Total:   l.metrics.total.Load(),
		Allowed: l.metrics.allowed.Load(),
		Denied:  l.metrics.denied.Load(),
	}
}
