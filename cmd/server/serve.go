package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/api"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/database"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/geocode"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/jobs"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/monitoring"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/ratelimit"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

func (rt *appState) serve(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("unknown command %q", c.Args().First()), 2)
	}

	cfg := rt.cfg
	logger := rt.logger(rt.stdout)
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	metrics := monitoring.NewMetrics()

	db, err := rt.openDB(logger)
	if err != nil {
		return err
	}
	defer errors.SafeClose(db, "database")

	// Redis is optional; the limiter falls back to in-memory buckets
	redisClient, err := ratelimit.NewRedisClient(c.Context, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	defer errors.SafeClose(redisClient, "redis")

	limitCfg := ratelimit.DefaultConfig()
	limitCfg.IPLimitPerMin = cfg.RateLimitPerMin
	limitCfg.WriteLimitPerMin = cfg.WriteLimitPerMin
	limiter := ratelimit.NewRateLimiter(redisClient, limitCfg, metrics)
	defer limiter.Close()

	var (
		geocoder geocode.Geocoder
		breaker  api.BreakerReporter
	)
	if cfg.GeocodingEnabled() {
		g, err := geocode.NewGoogleGeocoder(geocode.DefaultConfig(cfg.GoogleMapsAPIKey), metrics, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize geocoder: %w", err)
		}
		geocoder, breaker = g, g
	} else {
		logger.Info("GOOGLE_MAPS_API_KEY not set, geocoding disabled")
	}

	service := database.NewPointService(database.NewRepository(db), geocoder, metrics, logger)

	scheduler := jobs.NewScheduler(logger, metrics, 5*time.Minute)
	if service.GeocodingEnabled() {
		if err := scheduler.AddBackfill(cfg.GeocodeSchedule, service, cfg.GeocodeBatchSize); err != nil {
			return fmt.Errorf("failed to schedule geocoding backfill: %w", err)
		}
	}
	scheduler.Start()

	router := api.NewRouter(api.Deps{
		Store:    service,
		Health:   db,
		Redis:    redisClient,
		Geocoder: breaker,
		Limiter:  limiter,
		Metrics:  metrics,
		Logger:   logger,
		Security: security.SecurityConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			EnableHSTS:     cfg.EnableHSTS,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "geocoding", service.GeocodingEnabled())
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = scheduler.Stop(context.Background())
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
