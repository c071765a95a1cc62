// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"envrun-cli/internal/runtime"
)

// ExitError carries the process exit status out of a RunE handler so Execute
// can pass it to os.Exit. A nil Err means the report was already printed and
// nothing else should be shown.
type ExitError struct {
	Code runtime.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("environments finished with exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// silent reports whether the error has nothing left to render.
func (e *ExitError) silent() bool { return e.Err == nil }

// exitCodeOf maps a handler error to the status envrun exits with.
func exitCodeOf(err error) runtime.ExitCode {
	if err == nil {
		return runtime.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return runtime.ExitFailure
}
