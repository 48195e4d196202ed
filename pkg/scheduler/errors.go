package scheduler

import (
	"errors"
	"fmt"
)

// Process exit codes for fatal scheduler errors
const (
	ExitFailure = 1
	// ExitReregister means the framework identity was erased and the next
	// start registers as a new framework
	ExitReregister = 9
)

// ErrInconsistentState means durable and live state disagree in a way the
// scheduler cannot repair by itself
var ErrInconsistentState = errors.New("cluster is in inconsistent state")

// reregisterMarker is the fragment of a fleet error that demands a fresh registration
const reregisterMarker = "re-register"

// FatalError ends the scheduler. Code is the process exit code.
type FatalError struct {
	Code   int
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatal(code int, reason string, err error) *FatalError {
	return &FatalError{Code: code, Reason: reason, Err: err}
}

// ExitCode returns the exit code for an error returned by Engine.Run
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ExitFailure
}
