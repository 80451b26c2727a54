package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sponsorgrid/internal/analytics"
	"sponsorgrid/internal/api"
	"sponsorgrid/internal/config"
	"sponsorgrid/internal/db"
	"sponsorgrid/internal/middleware"
	"sponsorgrid/internal/observability"
	"sponsorgrid/internal/tracking"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLogger(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracing, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TracingEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdownTracing()
	}

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	store, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	// The analytics warehouse is optional; without it the 7-day click
	// aggregates fall back to the click_events table in Postgres.
	var sink analytics.Service
	if cfg.ClickHouseDSN != "" {
		ch, err := analytics.InitClickHouse(cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		defer ch.Close()
		sink = ch
	}

	tracker := tracking.New(pg, store, sink, logger, metricsRegistry, cfg.TrackTimeout)
	srvDeps := api.NewServer(logger, pg, store, sink, tracker, metricsRegistry, cfg)

	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))

	r.HandleFunc("/api/campaigns/active", srvDeps.ActiveCampaignsHandler).Methods("GET")
	r.HandleFunc("/api/campaigns/feed", srvDeps.FeedCampaignsHandler).Methods("GET")
	r.HandleFunc("/api/feed/plan", srvDeps.FeedPlanHandler).Methods("POST")
	r.HandleFunc("/api/track", srvDeps.TrackHandler).Methods("POST")
	r.HandleFunc("/healthz", srvDeps.HealthHandler).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAPIKey(cfg.AdminAPIKey, logger))
	admin.HandleFunc("/campaigns", srvDeps.ListCampaignsHandler).Methods("GET")
	admin.HandleFunc("/campaigns", srvDeps.CreateCampaignHandler).Methods("POST")
	admin.HandleFunc("/campaigns/{id}", srvDeps.GetCampaignHandler).Methods("GET")
	admin.HandleFunc("/campaigns/{id}", srvDeps.UpdateCampaignHandler).Methods("PUT")
	admin.HandleFunc("/campaigns/{id}", srvDeps.DeleteCampaignHandler).Methods("DELETE")
	admin.HandleFunc("/campaigns/{id}/stats", srvDeps.StatsHandler).Methods("GET")
	admin.HandleFunc("/capacity", srvDeps.CapacityHandler).Methods("GET")
	admin.HandleFunc("/reload", srvDeps.ReloadHandler).Methods("POST")

	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "http.server"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if counts, err := srvDeps.RefreshGauges(ctx, time.Now()); err != nil {
		logger.Warn("initial gauge refresh failed", zap.Error(err))
	} else {
		logger.Info("eligibility gauges primed", zap.Any("eligible", counts))
	}

	logger.Info("placement server running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	if cfg.ReloadInterval > 0 {
		ticker := time.NewTicker(cfg.ReloadInterval)
		go func() {
			for {
				select {
				case <-ticker.C:
					if _, err := srvDeps.RefreshGauges(ctx, time.Now()); err != nil {
						logger.Error("gauge refresh", zap.Error(err))
					}
				case <-ctx.Done():
					ticker.Stop()
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := tracker.Drain(shutdownCtx); err != nil {
		logger.Warn("tracking events still in flight at shutdown", zap.Error(err))
	}

	return nil
}
