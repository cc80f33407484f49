package recordable

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// Reason classifies why an acquisition did not produce content.
type Reason string

const (
	// ReasonUnavailable means the command, file, variable or library is absent.
	ReasonUnavailable Reason = "SOURCE_UNAVAILABLE"
	// ReasonFailed means the source exists but returned an error.
	ReasonFailed Reason = "SOURCE_FAILED"
	// ReasonTimedOut means the acquisition exceeded its bound.
	ReasonTimedOut Reason = "SOURCE_TIMED_OUT"
)

// Sentinels for errors.Is checks against an *AcquisitionError.
var (
	ErrUnavailable = errors.New("source unavailable")
	ErrFailed      = errors.New("source failed")
	ErrTimedOut    = errors.New("source timed out")
)

// AcquisitionError is the single error type the collector sees for a skipped source.
type AcquisitionError struct {
	Reason Reason
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Reason, e.Source, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Reason, e.Source)
}

// Unwrap returns the underlying cause.
func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}

// Is matches the reason sentinels so callers can write errors.Is(err, ErrTimedOut).
func (e *AcquisitionError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Reason == ReasonUnavailable
	case ErrFailed:
		return e.Reason == ReasonFailed
	case ErrTimedOut:
		return e.Reason == ReasonTimedOut
	}
	return false
}

// Unavailable wraps cause as a SourceUnavailable error for the named source.
func Unavailable(source string, cause error) *AcquisitionError {
	return &AcquisitionError{Reason: ReasonUnavailable, Source: source, Cause: cause}
}

// Failed wraps cause as a SourceFailed error for the named source.
func Failed(source string, cause error) *AcquisitionError {
	return &AcquisitionError{Reason: ReasonFailed, Source: source, Cause: cause}
}

// TimedOut wraps cause as a SourceTimedOut error for the named source.
func TimedOut(source string, cause error) *AcquisitionError {
	return &AcquisitionError{Reason: ReasonTimedOut, Source: source, Cause: cause}
}

// Classify turns any error returned by an acquisition into an *AcquisitionError.
// Errors that already carry a reason are returned unchanged.
func Classify(source string, err error) *AcquisitionError {
	if err == nil {
		return nil
	}

	var ae *AcquisitionError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TimedOut(source, err)
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, errors.ErrUnsupported):
		return Unavailable(source, err)
	default:
		return Failed(source, err)
	}
}
