// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies domain systems require: logging, lifecycle,
// database, upload staging, the policy taxonomy, and the remote provider gateway.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/internal/taxonomy"
	"github.com/JaimeStill/warden/pkg/database"
	"github.com/JaimeStill/warden/pkg/lifecycle"
	"github.com/JaimeStill/warden/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Taxonomy  *taxonomy.Registry
	Gateway   gateway.Gateway
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	registry, err := taxonomy.FromPath(cfg.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("taxonomy init failed: %w", err)
	}

	gw := gateway.WithPlaybackCache(
		gateway.New(&cfg.Provider, logger),
		cfg.Provider.CacheSize,
		cfg.Provider.CacheTTLDuration(),
	)

	logger.Info("infrastructure initialized",
		"env", cfg.Env(),
		"storage", cfg.Storage.Provider,
		"classes", len(registry.Classes()),
		"provider", cfg.Provider.BaseURL)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Taxonomy:  registry,
		Gateway:   gw,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database and storage hooks are registered for startup and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
