package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the location source could not produce a fix.
	ErrPermissionDenied = errors.New("location unavailable: permission denied")

	// ErrGeometryDegenerate is returned when an interpolation is ill-defined,
	// e.g. a chord parallel to the sightline or two coincident points.
	ErrGeometryDegenerate = errors.New("degenerate geometry")

	// ErrInvalidRequest marks query parameters outside the accepted range.
	ErrInvalidRequest = errors.New("invalid request")
)

// ProviderError reports a failed request to an external provider. Batch is
// the zero-based batch index for batched lookups, -1 otherwise.
type ProviderError struct {
	Provider  string
	Operation string
	Batch     int
	Status    int
	Err       error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Provider, e.Operation)
	if e.Batch >= 0 {
		msg += fmt.Sprintf(" (batch %d)", e.Batch)
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderFailure reports whether err wraps a ProviderError.
func IsProviderFailure(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
