package tripay

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned before any outbound call when the
	// credentials needed by an operation are missing.
	ErrNotConfigured = errors.New("payment gateway not configured")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("payment gateway temporarily unavailable")

	// ErrInvalidResponse is returned when the gateway answers with a body
	// that is not the expected JSON envelope.
	ErrInvalidResponse = errors.New("invalid response from payment gateway")
)

// APIError is a failure reported by the gateway itself, either through a
// non-2xx status or an envelope with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tripay: %s (status %d)", e.Message, e.StatusCode)
}

// HTTPStatus is the status to relay to our own caller. A 2xx envelope with
// success=false is a rejected request.
func (e *APIError) HTTPStatus() int {
	if e.StatusCode >= http.StatusBadRequest {
		return e.StatusCode
	}
	return http.StatusBadRequest
}

// isRejection reports whether err is a business-level answer from the
// gateway rather than a sign of gateway trouble.
func isRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError
}
