package build

import (
	"errors"
	"fmt"
)

// ErrItemsFailed is wrapped by the error returned when one or more items failed to render.
var ErrItemsFailed = errors.New("sitebuilder: items failed to render")

// StageErrorKind classifies how a stage failure affects the build.
type StageErrorKind string

const (
	// StageErrorFatal aborts the build.
	StageErrorFatal StageErrorKind = "fatal"
	// StageErrorWarning is logged and recorded; the build continues.
	StageErrorWarning StageErrorKind = "warning"
)

// StageError records a failure attached to a named stage.
type StageError struct {
	Stage string
	Kind  StageErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Fatal reports whether the error aborted the build.
func (e *StageError) Fatal() bool { return e.Kind == StageErrorFatal }
