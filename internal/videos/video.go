// Package videos records successfully indexed videos so later analysis calls
// can reference them. Uploads run through the indexing orchestrator; a record
// is written only when the job reaches the ready state.
package videos

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/internal/indexing"
)

// Video is an indexed video and the provider identifiers needed to analyze it.
type Video struct {
	ID          uuid.UUID `json:"id"`
	IndexID     string    `json:"index_id"`
	VideoID     string    `json:"video_id"`
	TaskID      string    `json:"task_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// UploadCommand carries one video to index. IndexID targets an existing
// provider index; when empty a new index is created.
type UploadCommand struct {
	IndexID     string
	Filename    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// BatchResult reports the outcome of a single file within a batch upload.
// On success, Video is populated and Error is empty.
// On failure, Error describes the problem and Video is nil.
type BatchResult struct {
	Video    *Video `json:"video,omitempty"`
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}

// Indexer runs one indexing job to a terminal state.
type Indexer interface {
	Run(ctx context.Context, req indexing.Request) (indexing.Job, error)
}
