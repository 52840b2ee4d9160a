// Package server exposes the net-worth aggregation over HTTP. The response
// contract is strict: every reply, including errors and panics, is valid
// JSON carrying the full set of numeric fields.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"networth/pkg/core"
	"networth/pkg/networth"
)

// Aggregator produces one snapshot per request.
type Aggregator interface {
	Aggregate(ctx context.Context) *networth.Snapshot
}

// Server wires the aggregator into the HTTP routes.
type Server struct {
	cfg    *core.Config
	agg    Aggregator
	logger zerolog.Logger
}

// New creates a Server. The aggregator may be backed by a credential-less
// client; the missing-credential check happens per request.
func New(cfg *core.Config, agg Aggregator, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		agg:    agg,
		logger: logger,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.recovery())

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, &networth.Snapshot{Error: "method not allowed, use GET"})
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/", s.handleNetWorth)
	r.GET("/networth", s.handleNetWorth)

	return r
}

func (s *Server) handleNetWorth(c *gin.Context) {
	if s.cfg.Credentials.Empty() {
		c.JSON(http.StatusInternalServerError, &networth.Snapshot{
			Error: "missing BINANCE_API_KEY / BINANCE_API_SECRET configuration",
		})
		return
	}

	snap := s.agg.Aggregate(c.Request.Context())
	c.JSON(http.StatusOK, snap)
}

// recovery converts any panic in the pipeline into a 500 whose body still
// carries the zeroed numeric fields downstream consumers depend on.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, &networth.Snapshot{
					Error: "internal error",
				})
			}
		}()
		c.Next()
	}
}
