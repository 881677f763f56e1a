package embedding

import (
	"fmt"
	"strings"
)

// ServiceError reports a failed call to the embedding service (network, auth, quota, or input
// rejected by the model). Callers do not retry it.
type ServiceError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	parts := []string{"embedding service error"}
	if e.Provider != "" {
		parts = append(parts, "provider="+e.Provider)
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}
