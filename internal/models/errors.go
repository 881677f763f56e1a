package models

import "fmt"

// MalformedArchiveError reports an archive that is missing a required field or has a field of the
// wrong shape. Path is a JSON path such as "conversations[2].messages[0].timestamp".
type MalformedArchiveError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *MalformedArchiveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed archive at %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed archive at %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying decode error, if any.
func (e *MalformedArchiveError) Unwrap() error {
	return e.Cause
}

// InvalidQueryError reports a search request that cannot be executed.
type InvalidQueryError struct {
	Field   string
	Message string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid search query: %s %s", e.Field, e.Message)
}
