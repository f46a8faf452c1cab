package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy for the pipeline. Classifier and router failures are
// recovered locally with safe defaults; storyteller and judge failures
// propagate through RequestError and abort the current request.
var (
	ErrServiceUnavailable = errors.New("generation service unavailable")
	ErrMalformedOutput    = errors.New("malformed generation output")
	ErrNoAPIKey           = errors.New("API key not configured")
)

// RequestError wraps a failure inside one story-generation request with the
// role that failed and the revision cycle it failed in.
type RequestError struct {
	Role     string // "storyteller" or "judge"
	Revision int
	Cause    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed at revision %d: %v", e.Role, e.Revision, e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// IsMalformed reports whether err stems from unparseable model output.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedOutput)
}
