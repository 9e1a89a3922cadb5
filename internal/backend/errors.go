package backend

import "fmt"

// APIError is a non-2xx response from the processing service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx) are
// considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}
