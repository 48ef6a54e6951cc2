package api

import (
	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/internal/infrastructure"
	"github.com/JaimeStill/warden/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination   pagination.Config
	Indexing     indexing.Config
	IndexPrefix  string
	DefaultIndex string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Taxonomy:  infra.Taxonomy,
			Gateway:   infra.Gateway,
		},
		Pagination:   cfg.API.Pagination,
		Indexing:     cfg.Indexing,
		IndexPrefix:  cfg.Provider.IndexPrefix,
		DefaultIndex: cfg.Provider.IndexID,
	}
}
