package moderation

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/videos"
)

// System defines the public contract for moderation operations.
type System interface {
	Handler() *Handler

	// Classes lists the policy catalogue in registry order.
	Classes() []ClassView
	// Classify scores every video in the target index against the selected
	// classes. ErrNoClassesSelected is returned before any remote call when no
	// name resolves.
	Classify(ctx context.Context, cmd ClassifyCommand) (*ClassifyResponse, error)
	// Analyze runs generative analysis on one video. Malformed generated text
	// never fails the call; it yields a report with Parsed set to false.
	Analyze(ctx context.Context, cmd AnalyzeCommand) (*AnalyzeResponse, error)
	// AnalyzeVideo analyzes a recorded video by its local ID.
	AnalyzeVideo(ctx context.Context, id uuid.UUID) (*AnalyzeResponse, error)
}

// VideoSource is the subset of the video store moderation reads from.
type VideoSource interface {
	Find(ctx context.Context, id uuid.UUID) (*videos.Video, error)
	Latest(ctx context.Context) (*videos.Video, error)
}
