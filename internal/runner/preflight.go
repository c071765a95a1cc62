// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"envrun-cli/internal/container"
	"envrun-cli/internal/runtime"
	"envrun-cli/pkg/envfile"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrPreflight is the sentinel error wrapped by PreflightError.
	ErrPreflight = errors.New("preflight failed")
	// ErrExternalNotFound is the sentinel error wrapped by ExternalNotFoundError.
	ErrExternalNotFound = errors.New("allowlisted external not found")
	// ErrCommandNotAllowed is the sentinel error wrapped by CommandNotAllowedError.
	ErrCommandNotAllowed = errors.New("command not allowed")
)

type (
	// EngineProbe checks that a container engine serving one of programs
	// (all docker or podman CLI names) answers.
	EngineProbe func(ctx context.Context, programs []string) error

	// PreflightError collects every preflight failure of one environment.
	// No command of the environment ran.
	PreflightError struct {
		Env    envfile.EnvName
		Errors *multierror.Error
	}

	// ExternalNotFoundError reports an allowlisted external that does not resolve.
	ExternalNotFoundError struct {
		External envfile.ExternalPattern
		Err      error
	}

	// CommandNotAllowedError reports a command whose program matches no
	// allowlisted external.
	CommandNotAllowedError struct {
		Program string
		Line    string
	}
)

func (e *PreflightError) Error() string {
	errs := e.Errors.WrappedErrors()
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("preflight failed for %s: %s", e.Env, strings.Join(msgs, "; "))
}

// Unwrap exposes the sentinel and every collected failure to errors.Is/As.
func (e *PreflightError) Unwrap() []error {
	return append([]error{ErrPreflight}, e.Errors.WrappedErrors()...)
}

func (e *ExternalNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s is not installed or not on PATH", ErrExternalNotFound, e.External)
}

func (e *ExternalNotFoundError) Unwrap() []error { return []error{ErrExternalNotFound, e.Err} }

func (e *CommandNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %q runs %s, which is not in allowlist_externals", ErrCommandNotAllowed, e.Line, e.Program)
}

func (e *CommandNotAllowedError) Unwrap() error { return ErrCommandNotAllowed }

// DefaultEngineProbe probes the docker/podman CLIs. With a single engine
// allowlisted that engine must answer; with both, preferred is tried first
// and the other is the fallback.
func DefaultEngineProbe(preferred container.EngineType, opts ...container.BaseCLIEngineOption) EngineProbe {
	return func(ctx context.Context, programs []string) error {
		if len(programs) == 1 {
			engine, err := container.ForProgram(programs[0], opts...)
			if err != nil {
				return err
			}
			if !engine.Available(ctx) {
				reason := "the daemon did not answer"
				if engine.BinaryPath() == "" {
					reason = "the CLI is not installed"
				}
				return &container.EngineNotAvailableError{Engine: engine.Name(), Reason: reason}
			}
			return nil
		}
		_, err := container.NewEngine(ctx, preferred, opts...)
		return err
	}
}

// Preflight checks env without running any of its commands.
func (r *Runner) Preflight(ctx context.Context, env *envfile.Environment) error {
	p, err := r.prepare(env)
	if err != nil {
		return err
	}
	return r.preflight(ctx, p)
}

// preflight verifies, collecting every failure:
//   - each non-glob, non-engine external resolves on the environment's PATH
//   - the allowlisted container engines answer
//   - each command's programs match the allowlist
func (r *Runner) preflight(ctx context.Context, p *plan) error {
	var result *multierror.Error

	var engines []string
	for _, ext := range p.env.Externals {
		if ext.IsGlob() {
			continue
		}
		if container.IsEngineName(string(ext)) {
			engines = append(engines, string(ext))
			continue
		}
		if _, err := r.lookPath(string(ext), p.workDir, p.vars); err != nil {
			result = multierror.Append(result, &ExternalNotFoundError{External: ext, Err: err})
		}
	}
	if len(engines) > 0 {
		r.logger.Debug("probing container engine", "env", p.env.Name, "engines", engines)
		if err := r.engineProbe(ctx, engines); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if !p.env.AllowsAnyExternal() {
		for _, cmd := range p.commands {
			programs, err := runtime.ProgramsOf(p.mode, cmd.line, p.vars)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s[%d]: %w", cmd.phase, cmd.index, err))
				continue
			}
			for _, program := range programs {
				if !r.allowed(p, program) {
					result = multierror.Append(result, &CommandNotAllowedError{Program: program, Line: cmd.line})
				}
			}
		}
	}

	if err := ctx.Err(); err != nil {
		result = multierror.Append(result, err)
	}

	if result.ErrorOrNil() == nil {
		return nil
	}
	return &PreflightError{Env: p.env.Name, Errors: result}
}

// allowed matches program against the allowlist by name, and by its
// resolved path so that globs like /usr/bin/* admit bare names.
func (r *Runner) allowed(p *plan, program string) bool {
	if p.env.IsAllowed(program) {
		return true
	}
	resolved, err := r.lookPath(program, p.workDir, p.vars)
	return err == nil && p.env.IsAllowed(resolved)
}
