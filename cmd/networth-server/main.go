package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"networth/internal/server"
	"networth/pkg/binance"
	"networth/pkg/core"
	"networth/pkg/networth"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		listenAddr   = flag.String("listen", getenv("NETWORTH_LISTEN", ":8080"), "HTTP listen address")
		strictPrices = flag.Bool("strict-prices", getenv("NETWORTH_STRICT_PRICES", "") == "true", "fail the whole request when the public price feed is down")
		logLevel     = flag.String("log-level", getenv("NETWORTH_LOG_LEVEL", "info"), "log level (debug|info|warn|error)")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		logger = logger.Level(lvl)
	}

	cfg := core.DefaultConfig().
		WithStrictPrices(*strictPrices).
		WithCredentials(&core.Credentials{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_API_SECRET"),
		})
	cfg.LogLevel = *logLevel

	if cfg.Credentials.Empty() {
		// Start anyway; the endpoint reports the missing configuration
		// per request so probes keep getting parseable JSON.
		logger.Warn().Msg("BINANCE_API_KEY / BINANCE_API_SECRET not set")
	}

	client, err := binance.NewClient(cfg, binance.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("create binance client")
	}
	defer client.Close()

	agg := networth.New(client, cfg, networth.WithLogger(logger))
	srv := server.New(cfg, agg, logger)

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *listenAddr).Msg("networth server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)

	logger.Info().Msg("server stopped")
}
