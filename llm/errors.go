package llm

import (
	"fmt"
	"net/http"
)

// ProviderError represents a failed provider API call.
type ProviderError struct {
	// Provider is the name of the provider that produced the error.
	Provider string

	// StatusCode is the HTTP status code, or zero for transport failures.
	StatusCode int

	// Message is the provider's error description.
	Message string

	// RequestID is the correlation ID of the failed request.
	RequestID string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s (request %s)", e.Provider, e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (request %s)", e.Provider, e.Message, e.RequestID)
}

// IsRecoverable reports whether the request is worth retrying. Rate limits,
// overload responses, and server errors are transient; auth and validation
// failures are not.
func (e *ProviderError) IsRecoverable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 0:
		// Transport-level failure (connection reset, DNS, ...).
		return true
	default:
		return false
	}
}
