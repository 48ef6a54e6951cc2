// Package gateway is the sole boundary to the remote video-understanding provider.
// Each operation maps to one provider call; transport failures and provider
// rejections surface as ErrUnavailable and ErrRejected. No state is retained
// across calls except the optional playback URL cache.
package gateway

import (
	"context"
	"encoding/json"
	"io"

	"github.com/JaimeStill/warden/internal/taxonomy"
)

// Status is the normalized state of a remote indexing task.
type Status string

// Normalized task states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further polling can change the status.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// TaskStatus is the result of a single task poll. VideoID is populated by the
// provider once the task reaches StatusReady.
type TaskStatus struct {
	TaskID  string `json:"task_id"`
	Status  Status `json:"status"`
	VideoID string `json:"video_id,omitempty"`
}

// Upload is a video stream submitted for indexing.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ClassScore is one class score as reported by the provider. Numbers are kept
// loosely typed; shaping into strict values belongs to the analysis package.
type ClassScore struct {
	Name          string      `json:"name"`
	Score         json.Number `json:"score"`
	DurationRatio json.Number `json:"duration_ratio,omitempty"`
}

// VideoScores groups the class scores the provider returned for one video.
type VideoScores struct {
	VideoID string       `json:"video_id"`
	Classes []ClassScore `json:"classes"`
}

// Gateway defines the remote operations the core depends on.
type Gateway interface {
	// CreateIndex creates a uniquely named index supporting both visual and
	// conversational analysis and returns its identifier.
	CreateIndex(ctx context.Context, namePrefix string) (string, error)
	// SubmitIndexingTask uploads a video into an index and returns the task handle.
	SubmitIndexingTask(ctx context.Context, indexID string, video Upload) (string, error)
	// PollTask performs a single status check; cadence belongs to the caller.
	PollTask(ctx context.Context, taskID string) (TaskStatus, error)
	// ResolvePlaybackURL returns the playable URL for an indexed video. An empty
	// URL with a nil error means the provider has no URL available yet.
	ResolvePlaybackURL(ctx context.Context, indexID, videoID string) (string, error)
	// Classify scores every video in the index against the given classes.
	Classify(ctx context.Context, indexID string, classes []taxonomy.PolicyClass) ([]VideoScores, error)
	// GenerateAnalysis returns provider-generated text for a video. The text is not parsed.
	GenerateAnalysis(ctx context.Context, videoID, prompt string) (string, error)
}
