package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrPhaseOrder is returned when the orchestrator's phases are called
	// out of order or more than once.
	ErrPhaseOrder = errors.New("write phases called out of order")
	// ErrInvalidStride is returned for subsampling strides below one.
	ErrInvalidStride = errors.New("subsample stride must be a positive integer")
)

// HeaderMissingError reports a snapshot header field which is absent or has
// an unexpected type.
type HeaderMissingError struct {
	Field  string
	Reason string
}

func (e *HeaderMissingError) Error() string {
	return fmt.Sprintf("snapshot header field '%s' %s", e.Field, e.Reason)
}

// UnsupportedUnitSystemError reports a unit system other than Mpc or Kpc.
type UnsupportedUnitSystemError struct {
	Name string
}

func (e *UnsupportedUnitSystemError) Error() string {
	return fmt.Sprintf("unsupported unit system '%s': must be one of %s",
		e.Name, unitSystemNames())
}

// InvalidScaleFactorError reports a scale factor that isn't a positive
// number.
type InvalidScaleFactorError struct {
	A float64
}

func (e *InvalidScaleFactorError) Error() string {
	return fmt.Sprintf("invalid scale factor %g: must be positive", e.A)
}

// WriteFailure reports a failed store write. Phase is 1 for the header
// placeholder and 2 for the full write.
type WriteFailure struct {
	Phase int
	Err   error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("phase %d write failed: %v", e.Phase, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// RelocationFailure reports a failed move or copy of a store artifact
// between write phases.
type RelocationFailure struct {
	Op       string
	From, To string
	Err      error
}

func (e *RelocationFailure) Error() string {
	return fmt.Sprintf("could not %s %s to %s: %v", e.Op, e.From, e.To, e.Err)
}

func (e *RelocationFailure) Unwrap() error { return e.Err }
