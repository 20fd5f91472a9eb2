package marketapi

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultUnsupportedMessage is shown when a 403 carries no message.
const DefaultUnsupportedMessage = "Stock exchange not supported"

// ErrExchangeUnsupported matches (via errors.Is) an APIError with status
// 403, which the backend returns for symbols on exchanges it cannot serve.
var ErrExchangeUnsupported = errors.New("exchange not supported")

// APIError is returned for any non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrExchangeUnsupported) match 403 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrExchangeUnsupported && e.StatusCode == http.StatusForbidden
}

// Temporary reports whether a retry may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// UnsupportedMessage returns the user-facing text for an
// exchange-not-supported error, or "" when err is not one.
func UnsupportedMessage(err error) string {
	if !errors.Is(err, ErrExchangeUnsupported) {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return DefaultUnsupportedMessage
}
