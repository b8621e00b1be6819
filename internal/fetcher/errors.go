package fetcher

import (
	"errors"
	"fmt"
)

// ErrHTTPStatus is matched by a TransportError caused by a non-2xx response.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// TransportError describes a failed HTTP exchange: either the server
// answered with a status outside 2xx or the request never completed.
type TransportError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code, or 0 for network failures.
	StatusCode int

	// Status is the status line text such as "404 Not Found".
	Status string

	// Err is the underlying network error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %s for url: %s", e.Status, e.URL)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the network cause, or ErrHTTPStatus for status failures.
func (e *TransportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.StatusCode != 0 {
		return ErrHTTPStatus
	}
	return nil
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func statusError(rawURL string, code int, status string) *TransportError {
	if status == "" {
		status = fmt.Sprintf("%d", code)
	}
	return &TransportError{URL: rawURL, StatusCode: code, Status: status}
}
