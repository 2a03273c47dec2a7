package shopify

import (
	"fmt"
)

// APIError is returned when the remote API answers with a non-2xx status or
// with an explicit success:false body.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s responded with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s responded with status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
