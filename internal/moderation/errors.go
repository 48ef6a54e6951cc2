package moderation

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/warden/internal/videos"
)

// Domain errors for moderation requests. Both are caller input errors and are
// raised before any remote call is made.
var (
	ErrNoClassesSelected = errors.New("no known policy classes selected")
	ErrNoVideoIndexed    = errors.New("no video has been indexed")
)

// MapHTTPStatus maps moderation errors, and the video, indexing, and gateway
// errors they wrap, to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoClassesSelected) || errors.Is(err, ErrNoVideoIndexed) {
		return http.StatusBadRequest
	}
	return videos.MapHTTPStatus(err)
}
