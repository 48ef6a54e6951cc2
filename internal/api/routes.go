package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	logger *slog.Logger,
) {
	groups := []routes.Group{
		domain.Videos.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Moderation.Handler().Routes(),
	}

	routes.Register(mux, groups...)
	logger.Debug("routes registered", "base_path", cfg.API.BasePath, "patterns", routes.Patterns(groups...))
}
