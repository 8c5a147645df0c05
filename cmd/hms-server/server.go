package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/config"
	"github.com/hospital/hms/internal/domain/admission"
	"github.com/hospital/hms/internal/domain/appointment"
	"github.com/hospital/hms/internal/domain/billing"
	"github.com/hospital/hms/internal/domain/doctor"
	"github.com/hospital/hms/internal/domain/medicalrecord"
	"github.com/hospital/hms/internal/domain/patient"
	"github.com/hospital/hms/internal/domain/ward"
	"github.com/hospital/hms/internal/platform/db"
	"github.com/hospital/hms/internal/platform/metrics"
	"github.com/hospital/hms/internal/platform/middleware"
)

const version = "0.1.0"

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  5 * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		m.RegisterPool(pool)
	}

	var store middleware.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		store = middleware.NewRedisIdempotencyStore(client)
		logger.Info().Msg("idempotency keys stored in redis")
	}

	e := newServer(cfg, pool, store, m, logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires repositories, services and handlers onto an echo
// instance. pool is only dereferenced when a request reaches the database.
func newServer(cfg *config.Config, pool *pgxpool.Pool, store middleware.IdempotencyStore,
	m *metrics.Metrics, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimitBytes))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader, middleware.IdempotencyKeyHeader},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.Metrics(m))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))
	api.Use(middleware.Idempotency(store, cfg.IdempotencyTTL, logger))

	tx := db.NewTransactor(pool,
		db.WithAcquireTimeout(cfg.DBAcquireTimeout),
		db.WithLockTimeout(cfg.DBLockTimeout),
		db.WithMetrics(m),
	)

	patientRepo := patient.NewRepoPG(pool)
	doctorRepo := doctor.NewRepoPG(pool)
	wardRepo := ward.NewRepoPG(pool)

	patientSvc := patient.NewService(tx, patientRepo, logger)
	doctorSvc := doctor.NewService(tx, doctorRepo, logger)
	wardSvc := ward.NewService(tx, wardRepo, logger)
	admissionSvc := admission.NewService(tx, admission.NewRepoPG(pool), patientRepo, wardRepo, m, logger)
	appointmentSvc := appointment.NewService(tx, appointment.NewRepoPG(pool), patientRepo, doctorRepo, m, logger)
	billingSvc := billing.NewService(tx, billing.NewRepoPG(pool), patientRepo, m, logger)
	recordSvc := medicalrecord.NewService(tx, medicalrecord.NewRepoPG(pool), patientRepo, doctorRepo, logger)

	patient.NewHandler(patientSvc, logger).RegisterRoutes(api)
	doctor.NewHandler(doctorSvc, logger).RegisterRoutes(api)
	ward.NewHandler(wardSvc, logger).RegisterRoutes(api)
	admission.NewHandler(admissionSvc, logger).RegisterRoutes(api)
	appointment.NewHandler(appointmentSvc, logger).RegisterRoutes(api)
	billing.NewHandler(billingSvc, logger).RegisterRoutes(api)
	medicalrecord.NewHandler(recordSvc, logger).RegisterRoutes(api)

	return e
}
