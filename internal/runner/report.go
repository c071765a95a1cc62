// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"time"

	"envrun-cli/internal/runtime"
	"envrun-cli/pkg/envfile"
)

const (
	// StatusPassed means every command succeeded or had its failure ignored.
	StatusPassed Status = "passed"
	// StatusFailed means a command failed.
	StatusFailed Status = "failed"
	// StatusPreflightFailed means preflight rejected the environment; nothing ran.
	StatusPreflightFailed Status = "preflight failed"
	// StatusSetupFailed means the environment could not be prepared; nothing ran.
	StatusSetupFailed Status = "setup failed"
	// StatusSkipped means the environment was not run (fail-fast, a failed
	// dependency, or cancellation).
	StatusSkipped Status = "skipped"
)

type (
	// Status is the outcome of one environment.
	Status string

	// CommandReport records one command.
	CommandReport struct {
		// Phase is commands_pre, commands or commands_post.
		Phase string
		// Line is the command after substitution.
		Line     string
		ExitCode runtime.ExitCode
		Duration time.Duration
		// Ignored is set when a non-zero exit was ignored by a "-" prefix.
		Ignored bool
		// Skipped is set when the command never ran.
		Skipped bool
		// Error is set when the command could not be started.
		Error error
	}

	// EnvReport records one environment.
	EnvReport struct {
		Name     envfile.EnvName
		Runtime  envfile.RuntimeMode
		Status Status
		// ExitCode is zero for skipped environments, except those skipped
		// by cancellation, which carry runtime.ExitInterrupted.
		ExitCode runtime.ExitCode
		Duration time.Duration
		Commands []CommandReport
		// Err explains a setup, preflight or skip status.
		Err error
	}

	// Report records a multi-environment run in execution order.
	Report struct {
		Envs []*EnvReport
	}
)

// Failed reports whether the environment ran, or tried to, and did not pass.
func (e *EnvReport) Failed() bool {
	switch e.Status {
	case StatusFailed, StatusPreflightFailed, StatusSetupFailed:
		return true
	default:
		return false
	}
}

// ExitCode returns the first non-zero environment exit code, or 0.
func (r *Report) ExitCode() runtime.ExitCode {
	for _, env := range r.Envs {
		if !env.ExitCode.IsSuccess() {
			return env.ExitCode
		}
	}
	return runtime.ExitSuccess
}

// Lookup returns the report of the named environment.
func (r *Report) Lookup(name envfile.EnvName) (*EnvReport, bool) {
	for _, env := range r.Envs {
		if env.Name == name {
			return env, true
		}
	}
	return nil, false
}
