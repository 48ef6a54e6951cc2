package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Gateway error kinds.
var (
	// ErrUnavailable indicates the provider could not be reached or failed to
	// produce a usable response (transport error, timeout, 5xx, malformed body).
	ErrUnavailable = errors.New("video provider unavailable")
	// ErrRejected indicates the provider was reachable but declined the request
	// (bad input, quota, unsupported format, empty index).
	ErrRejected = errors.New("video provider rejected request")
)

// ProviderError carries the operation and provider response details behind an
// ErrUnavailable or ErrRejected outcome.
type ProviderError struct {
	Op      string
	Status  int
	Message string
	Kind    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

func unavailable(op string, status int, msg string) error {
	return &ProviderError{Op: op, Status: status, Message: msg, Kind: ErrUnavailable}
}

func rejected(op string, status int, msg string) error {
	return &ProviderError{Op: op, Status: status, Message: msg, Kind: ErrRejected}
}

// classify maps a non-2xx provider status to an error kind.
func classify(status int) error {
	if status >= 500 {
		return ErrUnavailable
	}
	return ErrRejected
}

// MapHTTPStatus maps gateway errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrRejected) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
