package indexing

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/JaimeStill/warden/internal/gateway"
)

var (
	// ErrIndexingFailed indicates the provider finished the task unsuccessfully.
	ErrIndexingFailed = errors.New("indexing failed")
	// ErrIndexingTimeout indicates the task did not finish before the deadline.
	ErrIndexingTimeout = errors.New("indexing timed out")
)

// MapHTTPStatus maps indexing errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrIndexingFailed) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrIndexingTimeout) {
		return http.StatusGatewayTimeout
	}
	return gateway.MapHTTPStatus(err)
}

// State is the position of a Job in the indexing lifecycle.
type State string

// Job states. Ready, Failed and TimedOut are terminal.
const (
	StateCreated   State = "created"
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateReady     State = "ready"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Job tracks one video's path to becoming queryable. VideoID is set only when
// State is StateReady.
type Job struct {
	IndexID      string         `json:"index_id"`
	TaskID       string         `json:"task_id,omitempty"`
	VideoID      string         `json:"video_id,omitempty"`
	State        State          `json:"state"`
	LastStatus   gateway.Status `json:"last_status,omitempty"`
	Polls        int            `json:"polls"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	LastPolledAt time.Time      `json:"last_polled_at"`
}

// Request is a single video submitted for indexing. When IndexID is empty a
// new index is created for the job.
type Request struct {
	IndexID     string
	Filename    string
	ContentType string
	Body        io.Reader
}
