package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sparible/storefront/api"
	"github.com/sparible/storefront/api/routes"
	"github.com/sparible/storefront/internal/apiclient"
	"github.com/sparible/storefront/internal/auth"
	"github.com/sparible/storefront/internal/cart"
	"github.com/sparible/storefront/internal/catalog"
	"github.com/sparible/storefront/internal/session"
	"github.com/sparible/storefront/pkg/config"
	"github.com/sparible/storefront/pkg/instance"
	"github.com/sparible/storefront/pkg/logger"
	"github.com/sparible/storefront/pkg/metrics"
	"github.com/sparible/storefront/pkg/redis"
)

const (
	sessionSweepInterval = 5 * time.Minute
	shutdownTimeout      = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstream := metrics.NewUpstreamMetrics(registry)

	backend, err := apiclient.NewClient(
		cfg.Backend.APIBase(),
		apiclient.WithTimeout(cfg.Backend.Timeout),
		apiclient.WithObserver(upstream),
	)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{Backend: backend})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(session.ManagerParams{
		Backend:     backend,
		Persist:     redisClient,
		Logger:      logg,
		Metrics:     upstream,
		TTL:         cfg.Session.TTL,
		GuestTTL:    cfg.Session.GuestTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}
	go sessions.Run(ctx, sessionSweepInterval)

	facets, err := catalog.NewFacetService(catalog.FacetParams{
		Source: backend,
		Cache:  redisClient,
		TTL:    cfg.Catalog.FacetCacheTTL,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create facet service", err)
		os.Exit(1)
	}

	resolver, err := cart.NewResolver(backend, logg, cfg.Cart.LookupConcurrency)
	if err != nil {
		logg.Error(ctx, "failed to create product resolver", err)
		os.Exit(1)
	}

	server := api.NewServer(cfg, routes.NewRouter(routes.Params{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Backend:  backend,
		Auth:     authService,
		Sessions: sessions,
		Facets:   facets,
		Resolver: resolver,
		Gatherer: registry,
	}))

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"instance": instance.GetID(),
		"backend":  cfg.Backend.APIBase(),
	})
	logg.Info(runCtx, "starting storefront server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down storefront server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}
