// Package binance fetches account balances and public prices from the
// Binance REST API and normalizes them for net-worth aggregation.
package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"networth/internal/circuitbreaker"
	ihttp "networth/internal/http"
	"networth/internal/ratelimit"
	"networth/pkg/core"
)

type host int

const (
	hostAPI host = iota
	hostFutures
)

func (h host) String() string {
	if h == hostFutures {
		return "fapi"
	}
	return "api"
}

// Client is the authenticated Binance account client. It owns one transport
// per REST host plus the shared rate limiter and circuit breaker.
type Client struct {
	cfg      *core.Config
	api      *ihttp.Client
	fapi     *ihttp.Client
	protocol *Protocol
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker
	logger   zerolog.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Options)

// Options holds optional Client dependencies.
type Options struct {
	Logger zerolog.Logger
}

// WithLogger returns an option that sets the logger for the client.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg *core.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	api, err := ihttp.NewClient(&ihttp.Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
	}, options.Logger)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	fapi, err := ihttp.NewClient(&ihttp.Config{
		BaseURL:      cfg.FuturesBaseURL,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
	}, options.Logger)
	if err != nil {
		return nil, fmt.Errorf("create fapi client: %w", err)
	}

	var breaker *circuitbreaker.Breaker
	if cfg.CircuitBreakerEnabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    cfg.CircuitBreakerFailThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
		})
	}

	return &Client{
		cfg:      cfg,
		api:      api,
		fapi:     fapi,
		protocol: NewProtocol(),
		limiter:  ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod),
		breaker:  breaker,
		logger:   options.Logger,
	}, nil
}

// Close releases both transports.
func (c *Client) Close() error {
	if err := c.api.Close(); err != nil {
		return err
	}
	return c.fapi.Close()
}

// get performs one GET against the selected host, signing it when asked,
// and decodes a 2xx body into out.
func (c *Client) get(ctx context.Context, h host, path string, query map[string]string, signed bool, out any) error {
	if err := c.limiter.WaitHost(ctx, h.String()); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return core.ErrCircuitBreakerOpen
	}

	hc := c.api
	if h == hostFutures {
		hc = c.fapi
	}

	req := hc.Request().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if signed {
		if err := c.protocol.SignRequest(req, c.cfg.Credentials, c.cfg.RecvWindow); err != nil {
			return err
		}
	}

	resp, err := req.Get(path)
	if err != nil {
		c.record(false)
		return classifyTransportError(path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		// Auth rejections are a key-scope property, not an upstream outage.
		c.record(resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden)
		return c.protocol.ParseError(path, resp)
	}
	c.record(true)

	if out != nil {
		if err := sonic.Unmarshal(resp.Bytes(), out); err != nil {
			return core.NewUpstreamError(path, core.ErrorTypeParse, resp.StatusCode(), err.Error())
		}
	}
	return nil
}

func (c *Client) record(success bool) {
	if c.breaker != nil {
		c.breaker.Record(success)
	}
}

// degrade logs a fetch failure that has been converted to a zero result.
// Missing permission scope is expected and stays at debug level.
func (c *Client) degrade(endpoint string, err error) {
	if core.IsAuthenticationError(err) {
		c.logger.Debug().Str("endpoint", endpoint).Msg("credential lacks scope, counted as zero")
		return
	}
	c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("account fetch failed, counted as zero")
}

func classifyTransportError(endpoint string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return core.NewUpstreamError(endpoint, core.ErrorTypeTimeout, 0, err.Error())
	}
	return core.NewUpstreamError(endpoint, core.ErrorTypeNetwork, 0, err.Error())
}
