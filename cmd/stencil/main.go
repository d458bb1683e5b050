// Stencil - CRUD backend template
//
// This is the main entry point for the Stencil server: a reusable
// backend core with JWT authentication, role-based authorization,
// soft-deleting CRUD storage, and file uploads over SQLite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"

	_ "github.com/danharte/stencil/migrations"

	"github.com/danharte/stencil/internal/account"
	"github.com/danharte/stencil/internal/api"
	"github.com/danharte/stencil/internal/auth"
	"github.com/danharte/stencil/internal/file"
	"github.com/danharte/stencil/internal/infrastructure/cache"
	"github.com/danharte/stencil/internal/infrastructure/config"
	"github.com/danharte/stencil/internal/infrastructure/database"
	"github.com/danharte/stencil/internal/infrastructure/logging"
	"github.com/danharte/stencil/internal/repository"
	"github.com/danharte/stencil/internal/store"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Stencil", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Cache backend for resolved role sets
	roleCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() {
		if closeErr := roleCache.Close(); closeErr != nil {
			log.Error("error closing cache", "error", closeErr)
		}
	}()
	log.Info("cache ready", "backend", cfg.Cache.Backend)

	node, err := snowflake.NewNode(cfg.App.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("creating snowflake node: %w", err)
	}

	// Typed stores
	users := store.NewUsers(db, node)
	roles := store.NewRoles(db, node)
	links := store.NewUserRoles(db, node)
	files := store.NewFiles(db, node)

	// Services
	tokens := auth.NewTokenService(cfg.Security.JWT)
	resolver := auth.NewResolver(tokens, users, roles, links, roleCache, cfg.GetRoleCacheTTL(), log)
	authSvc := auth.NewService(tokens, users, resolver, log)
	accountSvc := account.NewService(users, roles, links, resolver, log)

	fileSvc, err := file.NewService(cfg.Files, files, log)
	if err != nil {
		return fmt.Errorf("initialising file service: %w", err)
	}

	// First-run bootstrap: create the admin account if no users exist
	if _, seedErr := store.Seed(ctx, users, roles, links, log, auth.HashPassword); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		DB:       db,
		Auth:     authSvc,
		Resolver: resolver,
		Accounts: accountSvc,
		Files:    fileSvc,
		Reports:  repository.NewExecutor(db),
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openCache selects the configured cache backend.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return cache.NewRedis(connectCtx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return cache.NewMemory(), nil
	}
}

// getConfigPath returns the configuration file path.
// Uses STENCIL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("STENCIL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
