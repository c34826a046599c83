package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/banking-ledger/internal/api"
	"github.com/ayo6706/banking-ledger/internal/auth"
	"github.com/ayo6706/banking-ledger/internal/config"
	"github.com/ayo6706/banking-ledger/internal/db"
	"github.com/ayo6706/banking-ledger/internal/idempotency"
	"github.com/ayo6706/banking-ledger/internal/observability"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/ayo6706/banking-ledger/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and background workers, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
	}

	backend, err := openBackend(ctx, cfg, redisClient)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.StorageBackend, err)
	}
	defer backend.Close()
	logger.Info("storage backend ready", zap.String("backend", cfg.StorageBackend))
	logger.Info("operator login", zap.Bool("enabled", cfg.AdminLoginEnabled()))

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("init tokens: %w", err)
	}

	var cache redis.Cmdable
	if redisClient != nil {
		cache = redisClient
	}

	repo := repository.NewRepository(backend)
	services, reconcile := newServices(cfg, repo, tokens)
	idemStore := idempotency.NewStore(cache, cfg.IdempotencyTTL)

	stopReconciliation := worker.NewReconciliationWorker(reconcile).
		WithInterval(cfg.ReconciliationInterval).
		Run(ctx)
	stopSweeper := worker.NewIdempotencySweeper(idemStore).Run(ctx)

	router := api.NewRouter(cfg, logger, repo, tokens, services, idemStore, cache)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopReconciliation()
	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newServices(cfg *config.Config, repo *repository.Repository, tokens *auth.Tokens) (api.Services, *service.ReconciliationService) {
	locks := service.NewUserLocks(cfg.SerializeUsers)
	journal := service.NewJournal(repo, nil)
	receipts := service.NewReceiptService(repo, nil)
	reconcile := service.NewReconciliationService(repo, nil)
	admin := service.AdminCredentials{
		Key:      cfg.AdminKey,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}
	return api.Services{
		Identity: service.NewIdentityService(repo, auth.NewBcryptHasher(cfg.BcryptCost), tokens, admin, nil),
		Ledger:   service.NewLedgerService(repo, journal, receipts, locks, service.LedgerOptions{BlockBanned: cfg.BlockBannedInLedger}),
		Admin:    service.NewAdminService(repo, journal, locks, reconcile, nil),
		Journal:  journal,
		Receipts: receipts,
	}, reconcile
}

// openBackend builds the storage backend named by STORAGE_BACKEND.
func openBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return repository.NewMemoryBackend(), nil
	case config.BackendFile, "":
		return repository.NewFileBackend(cfg.DataDir)
	case config.BackendSQLite:
		return repository.NewSQLiteBackend(ctx, cfg.SQLitePath)
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
		return repository.NewRedisBackend(redisClient), nil
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend, err := repository.NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
