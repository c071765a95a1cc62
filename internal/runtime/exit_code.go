// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strconv"
)

// Well-known exit codes.
const (
	ExitSuccess ExitCode = 0
	// ExitFailure is used for failures that carry no process status of their own.
	ExitFailure ExitCode = 1
	// ExitNotExecutable means the program was found but could not be executed.
	ExitNotExecutable ExitCode = 126
	// ExitNotFound means the program could not be resolved. Preflight failures
	// report it too, since they almost always come from a missing external.
	ExitNotFound ExitCode = 127
	// ExitInterrupted is the shell convention for a run stopped by SIGINT (128+2).
	ExitInterrupted ExitCode = 130
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// IsValid returns whether the ExitCode is in the valid range (0-255),
// and a list of validation errors if it is not.
func (c ExitCode) IsValid() (bool, []error) {
	if c < 0 || c > 255 {
		return false, []error{&InvalidExitCodeError{Value: c}}
	}
	return true, nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// IsLaunchFailure reports whether the code means the program never ran
// (codes 126 and 127).
func (c ExitCode) IsLaunchFailure() bool { return c == ExitNotExecutable || c == ExitNotFound }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// clampExitCode folds an arbitrary process status into 0-255. Signalled
// processes report -1 from os.ProcessState and are mapped to ExitFailure.
func clampExitCode(code int) ExitCode {
	if code < 0 {
		return ExitFailure
	}
	return ExitCode(code & 0xff)
}
