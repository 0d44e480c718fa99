package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"smpos/backend/internal/cache"
	"smpos/backend/internal/config"
	"smpos/backend/internal/domain"
	"smpos/backend/internal/httpapi"
	"smpos/backend/internal/invoice"
	"smpos/backend/internal/obs"
	"smpos/backend/internal/search"
	"smpos/backend/internal/service"
	"smpos/backend/internal/store"
	"smpos/backend/internal/store/memory"
	pgstore "smpos/backend/internal/store/postgres"
	sqlitestore "smpos/backend/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.ShopTimezone)
	if err != nil {
		logger.Fatal("invalid SHOP_TIMEZONE", zap.String("timezone", cfg.ShopTimezone), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closers, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("repository unavailable", zap.Error(err))
	}

	searchCache := cache.SearchCache(cache.NoopSearchCache{})
	var sequenceKV store.KeyValueStore = repo
	redisSequence := false
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		redisCache := cache.NewRedisSearchCache(client)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop search cache", zap.Error(err))
			_ = client.Close()
		} else {
			searchCache = redisCache
			closers = append(closers, client.Close)
			logger.Info("search cache: redis", zap.String("addr", cfg.RedisAddr))
			if cfg.SequenceStore == config.SequenceStoreRedis {
				sequenceKV = cache.NewRedisKV(client, "smpos:")
				redisSequence = true
			}
		}
	} else {
		logger.Info("search cache: noop")
	}
	if cfg.SequenceStore == config.SequenceStoreRedis && !redisSequence {
		logger.Warn("INVOICE_SEQUENCE_STORE=redis but redis is unavailable; keeping the sequence in the database")
	}

	engine := search.NewEngine(searchCache, time.Duration(cfg.SearchCacheTTLSeconds)*time.Second, logger)
	sequencer := invoice.NewSequencer(sequenceKV, location, logger)
	shop := domain.ShopDetails{Name: cfg.ShopName, Address: cfg.ShopAddress, Phone: cfg.ShopPhone}
	svc := service.New(repo, engine, sequencer, shop, logger)

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo, logger)
	if cfg.BootstrapAdminPassword != "" {
		if err := auth.EnsureAdmin(ctx, cfg.BootstrapAdminUser, cfg.BootstrapAdminPassword); err != nil {
			logger.Fatal("bootstrap admin", zap.Error(err))
		}
	}
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("POS backend listening", zap.String("addr", cfg.Address()), zap.String("shop", cfg.ShopName))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

// openRepository picks postgres when DATABASE_URL is set, the seeded memory
// store for DATABASE_PATH=memory, and the sqlite file otherwise.
func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Repository, []func() error, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		logger.Info("repository: postgres")
		return pg, []func() error{pg.Close}, nil
	case cfg.UseMemoryStore():
		logger.Warn("repository: in-memory; invoices and catalog edits are lost on restart")
		return memory.NewSeededWithLogger(logger), nil, nil
	default:
		db, err := sqlitestore.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite %s: %w", cfg.DatabasePath, err)
		}
		logger.Info("repository: sqlite", zap.String("path", cfg.DatabasePath))
		return db, []func() error{db.Close}, nil
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.BootstrapAdminPassword != "" && len(cfg.BootstrapAdminPassword) < 8 {
		return fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD must be at least 8 characters")
	}
	switch cfg.SequenceStore {
	case config.SequenceStoreDatabase, config.SequenceStoreRedis:
	default:
		return fmt.Errorf("INVOICE_SEQUENCE_STORE must be %q or %q", config.SequenceStoreDatabase, config.SequenceStoreRedis)
	}
	return nil
}
