// SPDX-License-Identifier: MPL-2.0

package runtime

// Result is what one command line produced. A command that ran and exited
// non-zero has a code and no Error; Error is reserved for lines that never
// started, such as a failed word split or an interpreter setup error.
type Result struct {
	ExitCode ExitCode
	Error    error
	// Output and ErrOutput are only filled by ExecuteCapture.
	Output    string
	ErrOutput string
}

// Success reports a zero exit status with nothing going wrong on the way.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// NewErrorResult is a Result for a command that failed to launch.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult is a Result for a zero exit.
func NewSuccessResult() *Result { return &Result{} }

// NewExitCodeResult is a Result for a command that ran to completion and
// exited with code.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}
