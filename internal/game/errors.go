package game

import (
	"fmt"
	"strings"
)

// FetchError reports a failure to retrieve the source page. StatusCode
// is zero when the failure happened below HTTP (DNS, TLS, timeouts).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError reports that a merged record failed hard validation.
// It carries the full result so callers can route users to manual entry
// with the specific field complaints.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return "metadata validation failed: " + strings.Join(e.Result.Errors, "; ")
}
