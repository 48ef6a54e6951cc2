package videos

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/warden/pkg/pagination"
)

// System defines the public contract for video domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Video], error)

	Find(ctx context.Context, id uuid.UUID) (*Video, error)
	// Latest returns the most recently indexed video, or ErrNotFound when none exist.
	Latest(ctx context.Context) (*Video, error)
	// Upload indexes one video and records it once the job is ready.
	Upload(ctx context.Context, cmd UploadCommand) (*Video, error)
	// UploadBatch indexes each command as an independent job with bounded
	// concurrency. Results are positional with cmds.
	UploadBatch(ctx context.Context, cmds []UploadCommand) []BatchResult
	// Delete removes the local record. The provider index is left untouched.
	Delete(ctx context.Context, id uuid.UUID) error
}
