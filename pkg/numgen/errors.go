package numgen

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Configuration errors are raised before any chunk is generated.
	ErrConfiguration       = errors.New("configuration error")
	ErrUnknownEngine       = errors.New("unknown engine")
	ErrUnknownFormat       = errors.New("unknown format")
	ErrUnsupportedBitWidth = errors.New("unsupported bit width")
	ErrMinOutOfRange       = errors.New("minimum out of range")
	ErrMaxOutOfRange       = errors.New("maximum out of range")
	ErrInvalidRequest      = errors.New("invalid request")

	// Run errors
	ErrWorkerFailure       = errors.New("worker failure")
	ErrIncompatibleVersion = errors.New("incompatible version")
	ErrRunNotFound         = errors.New("run not found")
)

// ConfigError wraps a specific configuration sentinel so that it matches both
// ErrConfiguration and the sentinel itself.
func ConfigError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", ErrConfiguration, kind, fmt.Sprintf(format, args...))
}

// TaskError reports the failure of the worker task generating one chunk.
type TaskError struct {
	Index int
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("chunk %d: %v: %v", e.Index, ErrWorkerFailure, e.Err)
}

func (e *TaskError) Unwrap() []error {
	return []error{ErrWorkerFailure, e.Err}
}
