package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds the API key pair used for signing account requests.
// The pair is injected at startup, read-only afterwards, and never logged.
type Credentials struct {
	// APIKey is the public API key identifier sent in the X-MBX-APIKEY header.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used for HMAC signing. Never persisted.
	SecretKey string `json:"secret_key"`
}

// Empty reports whether either half of the key pair is missing.
func (c *Credentials) Empty() bool {
	return c == nil || c.APIKey == "" || c.SecretKey == ""
}

// Config contains all options for one net-worth aggregation service instance.
// It covers authentication, networking, rate limiting, circuit breaking, and
// the orchestration policy knobs.
type Config struct {
	// BaseURL is the spot/SAPI REST host.
	BaseURL string `json:"base_url" validate:"required,url"`
	// FuturesBaseURL is the USD-margined futures REST host.
	FuturesBaseURL string `json:"futures_base_url" validate:"required,url"`

	Credentials *Credentials `json:"credentials,omitempty"`

	// QuoteAsset is the currency every balance is converted into.
	QuoteAsset string `json:"quote_asset" validate:"required"`

	// Timeout is the maximum duration for a single HTTP request.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// RecvWindow is the clock-skew tolerance sent with signed requests.
	// Zero omits the parameter and falls back to the exchange default.
	RecvWindow time.Duration `json:"recv_window" validate:"min=0"`

	// Budget bounds one whole aggregation pass. It must stay below the
	// hosting environment's hard execution limit so a timed-out pass can
	// still produce a well-formed response.
	Budget time.Duration `json:"budget" validate:"min=1ms"`

	// StrictPrices makes a public price-feed failure fatal to the whole
	// request. When false, conversions silently degrade to zero instead.
	StrictPrices bool `json:"strict_prices"`

	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with production Binance hosts and
// sensible defaults: 5s request timeout, 2 retries, 8s aggregation budget,
// 5s recvWindow, 1200 req/min rate limit, circuit breaker enabled.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api.binance.com",
		FuturesBaseURL: "https://fapi.binance.com",
		QuoteAsset:     "USDT",

		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RecvWindow: 5 * time.Second,
		Budget:     8 * time.Second,

		RateLimitRequests: 1200,
		RateLimitPeriod:   time.Minute,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Budget <= c.Timeout {
		return errors.New("Budget must exceed the per-request Timeout")
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURLs overrides both REST hosts and returns the config for chaining.
func (c *Config) WithBaseURLs(spot, futures string) *Config {
	c.BaseURL = spot
	c.FuturesBaseURL = futures
	return c
}

// WithTimeout sets the per-request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithBudget sets the whole-aggregation deadline and returns the config for chaining.
func (c *Config) WithBudget(budget time.Duration) *Config {
	c.Budget = budget
	return c
}

// WithStrictPrices selects whether a price-feed failure fails the whole request.
func (c *Config) WithStrictPrices(strict bool) *Config {
	c.StrictPrices = strict
	return c
}

// WithRateLimit sets the outbound rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}
