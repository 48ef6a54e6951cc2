package api

import (
	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/internal/moderation"
	"github.com/JaimeStill/warden/internal/videos"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Videos     videos.System
	Moderation moderation.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	orchestrator := indexing.New(
		runtime.Gateway,
		runtime.Storage,
		&runtime.Indexing,
		runtime.IndexPrefix,
		runtime.Logger,
	)

	videosSystem := videos.New(
		runtime.Database.Connection(),
		orchestrator,
		runtime.Logger,
		runtime.Pagination,
		runtime.Indexing.MaxConcurrent,
	)

	moderationSystem := moderation.New(
		runtime.Gateway,
		runtime.Taxonomy,
		videosSystem,
		runtime.DefaultIndex,
		runtime.Logger,
	)

	return &Domain{
		Videos:     videosSystem,
		Moderation: moderationSystem,
	}
}
