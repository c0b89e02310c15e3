package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/grzegorczykanna/UBSWebAPI/internal/api"
	"github.com/grzegorczykanna/UBSWebAPI/internal/cache"
	"github.com/grzegorczykanna/UBSWebAPI/internal/client"
	"github.com/grzegorczykanna/UBSWebAPI/internal/config"
	"github.com/grzegorczykanna/UBSWebAPI/internal/domain"
	"github.com/grzegorczykanna/UBSWebAPI/internal/service"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// run sets up and runs the HTTP server until ctx is canceled or a signal
// arrives.
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	// 1. Create a new context that is canceled when an interrupt or SIGTERM signal is received.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize dependencies
	countryService, closer, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	countryHandler := api.NewCountryHandler(countryService, log, api.HandlerOptions{
		PropagateStatus: cfg.Upstream.PropagateStatus,
	})
	routerOpts := api.RouterOptions{Log: log}
	if cfg.RateLimit.RPS > 0 {
		routerOpts.Limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	router := api.NewRouter(countryHandler, routerOpts)

	// 3. Configure the server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 4. Run the server in a separate goroutine so that it doesn't block.
	serverErrors := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("Server starting")
		// We filter for ErrServerClosed which is the expected error on graceful shutdown.
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	// 5. Block until a signal is received or an error occurs.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	// 6. Gracefully shut down the server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server gracefully stopped")
	return nil
}

// newService wires the upstream client and the configured cache backend.
// The returned closer releases the cache connection, if any.
func newService(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.CountryService, io.Closer, error) {
	var (
		c      cache.Cache = cache.Noop{}
		closer io.Closer   = nopCloser{}
	)
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		c = cache.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL)
	case config.CacheRedis:
		rdb, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB, cfg.Cache.RedisDialTimeout)
		if err != nil {
			return nil, nil, err
		}
		rc := cache.NewRedisCache(rdb, cfg.Cache.RedisPrefix, cfg.Cache.TTL)
		c, closer = rc, rc
	}
	log.WithField("backend", cfg.Cache.Backend).Debug("cache configured")

	upstream := client.NewRestCountriesClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	svc := service.NewCountryService(c, upstream, log, service.Options{
		Strict:     cfg.Pipeline.MalformedPolicy == config.PolicyStrict,
		TopN:       cfg.Pipeline.TopN,
		MinBorders: domain.Some(cfg.Pipeline.MinBorders),
		Timeout:    cfg.Server.RequestTimeout,
	})
	return svc, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
