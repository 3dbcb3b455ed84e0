// Copyright (c) 2026 Wafya. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Wafya HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the credential primitives (bcrypt, JWT, TOTP, lockout).
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/wafya/internal/api"
	"github.com/taibuivan/wafya/internal/platform/audit"
	"github.com/taibuivan/wafya/internal/platform/config"
	"github.com/taibuivan/wafya/internal/platform/constants"
	"github.com/taibuivan/wafya/internal/platform/metrics"
	"github.com/taibuivan/wafya/internal/platform/middleware"
	"github.com/taibuivan/wafya/internal/platform/migration"
	pgstore "github.com/taibuivan/wafya/internal/platform/postgres"
	redisstore "github.com/taibuivan/wafya/internal/platform/redis"
	"github.com/taibuivan/wafya/internal/platform/sec"
	"github.com/taibuivan/wafya/internal/users/access"
	"github.com/taibuivan/wafya/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[Wafya] service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context lives for the whole process; background sweepers stop with it.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly rather than hanging.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, constants.StartupTimeout)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{
		MaxConns:       cfg.DBMaxConns,
		ConnectTimeout: cfg.DBConnectTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, redisstore.Options{
		PoolSize:         cfg.RedisPoolSize,
		OperationTimeout: cfg.RedisOpTimeout,
	}, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Credential Primitives ──────────────────────────────────────────
	registry := metrics.New()
	auditor := audit.New(log, registry)

	hasher, err := sec.NewPasswordHasher(cfg.BcryptRounds)
	must(log, err, "initialize password hasher")

	tokens, err := sec.NewTokenService(sec.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.JWTExpiresIn,
		Issuer:        cfg.JWTIssuer,
	})
	must(log, err, "initialize jwt service")

	totp, err := sec.NewTOTP(cfg.TwoFactorIssuer)
	must(log, err, "initialize totp engine")

	identities := auth.NewIdentityRepository(pool)
	lockout, err := auth.NewLockoutPolicy(identities, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	must(log, err, "initialize lockout policy")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	facilities := access.NewFacilityRepository(pool)
	patients := access.NewPatientRepository(pool)

	authService, err := auth.NewService(auth.ServiceDeps{
		Identities:  identities,
		Enrollments: auth.NewTwoFactorEnrollmentStore(rdb),
		Hasher:      hasher,
		Tokens:      tokens,
		TOTP:        totp,
		Lockout:     lockout,
		Patients:    patients,
		Audit:       auditor,
		Metrics:     registry,
	})
	must(log, err, "initialize auth service")

	authenticator := auth.NewAuthenticator(tokens, identities, lockout, auditor, cfg.RequireVerifiedEmail)
	credentialLimiter := middleware.NewRateLimiter(rootCtx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	guard := access.NewGuard(facilities, patients, auditor)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, authenticator, credentialLimiter, cfg.IsDevelopment()),
		Access:    access.NewHandler(guard, authenticator.Authenticate),
	}

	server := api.NewServer(rootCtx, cfg, log, registry, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting down server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
