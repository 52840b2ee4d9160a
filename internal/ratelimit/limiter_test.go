package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := New(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow())
	}
	assert.False(t, l.Allow())
}

func TestLimiter_Wait(t *testing.T) {
	l := New(100, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx))
}

func TestLimiter_WaitCancelled(t *testing.T) {
	l := New(1, time.Minute)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx))
}

func TestLimiter_HostBucketsIndependent(t *testing.T) {
	l := New(2, time.Second)

	ctx := context.Background()
	require.NoError(t, l.WaitHost(ctx, "api"))
	require.NoError(t, l.WaitHost(ctx, "api"))
	// The fapi bucket has its own budget even with api exhausted.
	require.NoError(t, l.WaitHost(ctx, "fapi"))
}

func TestLimiter_SetLimit(t *testing.T) {
	l := New(1, time.Minute)
	require.True(t, l.Allow())
	require.False(t, l.Allow())

	l.SetLimit(1000, time.Second)
	time.Sleep(5 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestLimiter_Stats(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow()
	l.Allow()

	stats := l.Stats()
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Allowed)
	assert.Equal(t, int64(1), stats.Denied)
}
