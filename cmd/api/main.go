// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Dashi HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the storage backend (PostgreSQL with migrations, or in-memory).
//  4. Connect to Redis when configured.
//  5. Select the image URL resolver.
//  6. Wire services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
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
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/dashi/internal/api"
	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/entitlement"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/core/unlock"
	"github.com/taibuivan/dashi/internal/core/wallet"
	"github.com/taibuivan/dashi/internal/platform/config"
	"github.com/taibuivan/dashi/internal/platform/constants"
	"github.com/taibuivan/dashi/internal/platform/memdb"
	"github.com/taibuivan/dashi/internal/platform/migration"
	pgstore "github.com/taibuivan/dashi/internal/platform/postgres"
	redisstore "github.com/taibuivan/dashi/internal/platform/redis"
	"github.com/taibuivan/dashi/internal/platform/sec"
	"github.com/taibuivan/dashi/internal/platform/storage"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/users/auth"
)

// repositories is the storage backend chosen by STORAGE_DRIVER.
type repositories struct {
	units         tx.Manager
	users         auth.UserRepository
	series        series.Repository
	chapters      chapter.Repository
	wallets       wallet.Repository
	unlocks       unlock.Repository
	subscriptions subscription.Repository
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String(constants.FieldApp, constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String(constants.FieldVersion, constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String(constants.FieldApp, constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	checks := api.HealthDependencies{}

	// ── 3. Storage ────────────────────────────────────────────────────────
	var repos repositories
	if cfg.UsesPostgres() {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.PoolSize{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		}, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		repos = repositories{
			units:         pgstore.NewTxManager(pool),
			users:         auth.NewPostgresUserRepository(pool),
			series:        series.NewPostgresRepository(pool),
			chapters:      chapter.NewPostgresRepository(pool),
			wallets:       wallet.NewPostgresRepository(pool),
			unlocks:       unlock.NewPostgresRepository(pool),
			subscriptions: subscription.NewPostgresRepository(pool),
		}
		checks["postgres"] = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
	} else {
		db := memdb.New()
		repos = repositories{
			units:         db,
			users:         auth.NewMemoryUserRepository(db),
			series:        series.NewMemoryRepository(db),
			chapters:      chapter.NewMemoryRepository(db),
			wallets:       wallet.NewMemoryRepository(db),
			unlocks:       unlock.NewMemoryRepository(db),
			subscriptions: subscription.NewMemoryRepository(db),
		}
		log.Warn("memory_storage_enabled")
	}

	// ── 4. Redis ──────────────────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}
	contentCache := redisstore.NewCache(rdb, cfg.ContentCacheTTL, log)

	// ── 5. Images ─────────────────────────────────────────────────────────
	var images storage.ImageResolver = storage.NewStaticResolver(cfg.CDNBaseURL)
	if cfg.S3Endpoint != "" {
		images, err = storage.NewObjectResolver(startupCtx, storage.ObjectConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		}, log)
		must(log, err, "connect to object storage")
	}

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	authService := auth.NewService(repos.users, tokens, log, cfg.AccessTokenTTL)
	seriesService := series.NewService(repos.series, repos.units, log)
	chapterService := chapter.NewService(repos.chapters, seriesService, repos.units, log,
		chapter.WithAutoSaveRetention(cfg.AutoSaveRetention),
	)
	walletService := wallet.NewService(repos.wallets, repos.units, log)
	unlockService := unlock.NewService(repos.unlocks, repos.chapters, seriesService, walletService, repos.units, log)
	subscriptionService := subscription.NewService(repos.subscriptions, seriesService, repos.units, log)
	entitlementService := entitlement.NewService(entitlement.Dependencies{
		Chapters: repos.chapters,
		Series:   seriesService,
		Unlocks:  unlockService,
		Perks:    subscriptionService,
		Reader:   repos.units,
		Cache:    contentCache,
		Images:   images,
		Logger:   log,
	}, entitlement.WithImageURLTTL(cfg.ImageURLTTL))

	liveness, readiness := api.NewHealthHandlers(checks, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, api.Options{Port: cfg.ServerPort, CORS: cfg}, log, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Domains: []api.RouteRegistrar{
			auth.NewHandler(authService),
			series.NewHandler(seriesService),
			chapter.NewHandler(chapterService),
			entitlement.NewHandler(entitlementService),
			unlock.NewHandler(unlockService),
			wallet.NewHandler(walletService),
			subscription.NewHandler(subscriptionService),
		},
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Only startup wiring uses it.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
