package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/analysis"
	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/internal/taxonomy"
	"github.com/JaimeStill/warden/internal/videos"
)

type service struct {
	gateway      gateway.Gateway
	registry     *taxonomy.Registry
	videos       VideoSource
	defaultIndex string
	logger       *slog.Logger
}

// New creates the moderation System. defaultIndex is the provider index used
// for classification when neither the request nor the video store names one.
func New(
	gw gateway.Gateway,
	registry *taxonomy.Registry,
	source VideoSource,
	defaultIndex string,
	logger *slog.Logger,
) System {
	return &service{
		gateway:      gw,
		registry:     registry,
		videos:       source,
		defaultIndex: defaultIndex,
		logger:       logger.With("system", "moderation"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Classes() []ClassView {
	classes := s.registry.Classes()
	views := make([]ClassView, len(classes))
	for i, c := range classes {
		views[i] = ClassView{
			Name:    c.Name,
			Tag:     s.registry.Tag(c.Name),
			Prompts: c.Prompts,
		}
	}
	return views
}

func (s *service) Classify(ctx context.Context, cmd ClassifyCommand) (*ClassifyResponse, error) {
	classes, unresolved := s.registry.Resolve(cmd.Classes)
	if len(unresolved) > 0 {
		s.logger.Warn("unresolved classes dropped", "classes", unresolved)
	}
	if len(classes) == 0 {
		return nil, ErrNoClassesSelected
	}

	indexID, err := s.classifyIndex(ctx, cmd.IndexID)
	if err != nil {
		return nil, err
	}

	raw, err := s.gateway.Classify(ctx, indexID, classes)
	if err != nil {
		return nil, err
	}

	results := analysis.NormalizeClassification(raw, s.registry)

	urls := make(map[string]*string, len(results))
	for i := range results {
		id := results[i].VideoID
		url, seen := urls[id]
		if !seen {
			url = s.playbackURL(ctx, indexID, id)
			urls[id] = url
		}
		results[i].VideoURL = url
	}

	s.logger.Info("classification complete",
		"index_id", indexID,
		"classes", len(classes),
		"videos", len(results))

	return &ClassifyResponse{
		Success: true,
		IndexID: indexID,
		Results: results,
	}, nil
}

func (s *service) Analyze(ctx context.Context, cmd AnalyzeCommand) (*AnalyzeResponse, error) {
	indexID, videoID := cmd.IndexID, cmd.VideoID

	if videoID == "" {
		latest, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		indexID, videoID = latest.IndexID, latest.VideoID
	}

	if indexID == "" {
		indexID = s.defaultIndex
	}

	return s.analyze(ctx, indexID, videoID)
}

func (s *service) AnalyzeVideo(ctx context.Context, id uuid.UUID) (*AnalyzeResponse, error) {
	v, err := s.videos.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, v.IndexID, v.VideoID)
}

func (s *service) analyze(ctx context.Context, indexID, videoID string) (*AnalyzeResponse, error) {
	text, err := s.gateway.GenerateAnalysis(ctx, videoID, analysis.Prompt())
	if err != nil {
		return nil, err
	}

	report := analysis.NormalizeViolationReport(text)
	if !report.Parsed {
		s.logger.Warn("generated analysis unreadable, using fallback report", "video_id", videoID)
	}

	var url *string
	if indexID != "" {
		url = s.playbackURL(ctx, indexID, videoID)
	}

	s.logger.Info("analysis complete",
		"video_id", videoID,
		"risk_level", report.RiskLevel,
		"violations", report.ViolationCount,
		"parsed", report.Parsed)

	return &AnalyzeResponse{
		Success:   true,
		Timestamp: time.Now().UTC(),
		IndexID:   indexID,
		VideoID:   videoID,
		VideoURL:  url,
		Analysis:  report,
	}, nil
}

// classifyIndex picks the index to classify: the request's, then the latest
// recorded video's, then the configured default.
func (s *service) classifyIndex(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	latest, err := s.latest(ctx)
	if err == nil {
		return latest.IndexID, nil
	}
	if !errors.Is(err, ErrNoVideoIndexed) {
		return "", err
	}

	if s.defaultIndex != "" {
		return s.defaultIndex, nil
	}
	return "", ErrNoVideoIndexed
}

func (s *service) latest(ctx context.Context) (*videos.Video, error) {
	v, err := s.videos.Latest(ctx)
	if errors.Is(err, videos.ErrNotFound) {
		return nil, ErrNoVideoIndexed
	}
	if err != nil {
		return nil, fmt.Errorf("latest video: %w", err)
	}
	return v, nil
}

// playbackURL resolves a playback URL for display. A lookup failure degrades
// to no URL; the scores or report are the result of record.
func (s *service) playbackURL(ctx context.Context, indexID, videoID string) *string {
	url, err := s.gateway.ResolvePlaybackURL(ctx, indexID, videoID)
	if err != nil {
		s.logger.Warn("playback url lookup failed",
			"index_id", indexID,
			"video_id", videoID,
			"error", err)
		return nil
	}
	if url == "" {
		return nil
	}
	return &url
}
