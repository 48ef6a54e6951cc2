package videos

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/warden/internal/indexing"
)

// Domain errors for video operations.
var (
	ErrNotFound     = errors.New("video not found")
	ErrDuplicate    = errors.New("video already recorded")
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrInvalidFile  = errors.New("invalid file")
)

// MapHTTPStatus maps video and indexing errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) {
		return http.StatusBadRequest
	}
	return indexing.MapHTTPStatus(err)
}
