package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.binance.com", cfg.BaseURL)
	assert.Equal(t, "https://fapi.binance.com", cfg.FuturesBaseURL)
	assert.Equal(t, "USDT", cfg.QuoteAsset)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 8*time.Second, cfg.Budget)
	assert.Equal(t, 5*time.Second, cfg.RecvWindow)
	assert.False(t, cfg.StrictPrices)
	assert.True(t, cfg.CircuitBreakerEnabled)
}

func TestDefaultConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default is valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "malformed futures url",
			mutate:  func(c *Config) { c.FuturesBaseURL = "not-a-url" },
			wantErr: true,
		},
		{
			name:    "missing quote asset",
			mutate:  func(c *Config) { c.QuoteAsset = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "budget below request timeout",
			mutate:  func(c *Config) { c.Budget = c.Timeout / 2 },
			wantErr: true,
		},
		{
			name:    "breaker enabled without thresholds",
			mutate:  func(c *Config) { c.CircuitBreakerFailThreshold = 0 },
			wantErr: true,
		},
		{
			name:    "breaker disabled ignores thresholds",
			mutate:  func(c *Config) { c.CircuitBreakerEnabled = false; c.CircuitBreakerFailThreshold = 0 },
			wantErr: false,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	creds := &Credentials{APIKey: "key", SecretKey: "secret"}

	cfg := DefaultConfig().
		WithCredentials(creds).
		WithBaseURLs("http://localhost:9001", "http://localhost:9002").
		WithTimeout(2 * time.Second).
		WithBudget(4 * time.Second).
		WithStrictPrices(true).
		WithRateLimit(10, time.Second)

	assert.Same(t, creds, cfg.Credentials)
	assert.Equal(t, "http://localhost:9001", cfg.BaseURL)
	assert.Equal(t, "http://localhost:9002", cfg.FuturesBaseURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 4*time.Second, cfg.Budget)
	assert.True(t, cfg.StrictPrices)
	assert.Equal(t, 10, cfg.RateLimitRequests)
}

func TestCredentials_Empty(t *testing.T) {
	var nilCreds *Credentials
	assert.True(t, nilCreds.Empty())
	assert.True(t, (&Credentials{}).Empty())
	assert.True(t, (&Credentials{APIKey: "key"}).Empty())
	assert.True(t, (&Credentials{SecretKey: "secret"}).Empty())
	assert.False(t, (&Credentials{APIKey: "key", SecretKey: "secret"}).Empty())
}
