package moderation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/videos"
	"github.com/JaimeStill/warden/pkg/handlers"
	"github.com/JaimeStill/warden/pkg/routes"
)

// Handler provides HTTP endpoints for moderation operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "moderation"),
	}
}

// Routes returns the moderation route group, plus the analysis route nested
// under /videos.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/moderation",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/classes", Handler: h.Classes},
					{Method: "POST", Pattern: "/classify", Handler: h.Classify},
					{Method: "POST", Pattern: "/analyze", Handler: h.Analyze},
				},
			},
			{
				Prefix: "/videos",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/analyze", Handler: h.AnalyzeVideo},
				},
			},
		},
	}
}

// Classes returns the policy catalogue with presentation tags.
func (h *Handler) Classes(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Classes())
}

// Classify scores the indexed videos against the requested classes.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var cmd ClassifyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("decode classify request: %w", err))
		return
	}

	result, err := h.sys.Classify(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Analyze runs generative analysis. An empty body targets the most recently
// indexed video.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var cmd AnalyzeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && !errors.Is(err, io.EOF) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("decode analyze request: %w", err))
		return
	}

	result, err := h.sys.Analyze(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// AnalyzeVideo runs generative analysis on a recorded video by its UUID path parameter.
func (h *Handler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, videos.ErrNotFound)
		return
	}

	result, err := h.sys.AnalyzeVideo(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
