// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/shell"
)

// ErrEmptyCommand is returned when a command line expands to no words.
var ErrEmptyCommand = errors.New("command line is empty")

type (
	// NativeRuntime runs the program named by the first word of the command
	// line directly, without a shell. Quoting and $VAR references are
	// resolved by POSIX word splitting against the command's environment.
	NativeRuntime struct{}

	// ProgramNotFoundError is returned when the program of a command line
	// cannot be resolved against the command's PATH.
	ProgramNotFoundError struct {
		Program string
		Err     error
	}
)

// Error implements the error interface.
func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("program %q not found: %v", e.Program, e.Err)
}

// Unwrap returns exec.ErrNotFound so callers can use errors.Is for programmatic detection.
func (e *ProgramNotFoundError) Unwrap() error { return exec.ErrNotFound }

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether this runtime is available
func (r *NativeRuntime) Available() bool {
	return true
}

// Validate checks if a command line can be executed
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if _, err := Fields(ctx.Line, ctx.Env); err != nil {
		return err
	}
	return validateWorkDir(ctx.WorkDir)
}

// Execute runs the command line with the context's stdio
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, ctx.Stdin, ctx.Stdout, ctx.Stderr)
}

// ExecuteCapture runs the command line and captures its output
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	var stdout, stderr bytes.Buffer
	result := r.run(ctx, nil, &stdout, &stderr)
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (r *NativeRuntime) run(ctx *ExecutionContext, stdin io.Reader, stdout, stderr io.Writer) *Result {
	words, err := Fields(ctx.Line, ctx.Env)
	if err != nil {
		return NewErrorResult(ExitFailure, err)
	}

	program, err := ResolveProgram(words[0], ctx.WorkDir, ctx.Env)
	if err != nil {
		return NewErrorResult(launchExitCode(err), err)
	}

	cmd := exec.CommandContext(ctx.Context, program, words[1:]...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = EnvToSlice(ctx.Env)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return NewExitCodeResult(clampExitCode(exitErr.ExitCode()))
		}
		return NewErrorResult(launchExitCode(err), fmt.Errorf("failed to execute %q: %w", words[0], err))
	}

	return NewSuccessResult()
}

// Fields splits a command line into words the way a POSIX shell would,
// expanding $VAR references from env. Command substitution is not allowed.
func Fields(line string, env map[string]string) ([]string, error) {
	words, err := shell.Fields(line, func(name string) string { return env[name] })
	if err != nil {
		return nil, fmt.Errorf("cannot split %q (pipes, lists and redirections need runtime = virtual): %w", line, err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return words, nil
}

// ProgramOf returns the program name of a command line.
func ProgramOf(line string, env map[string]string) (string, error) {
	words, err := Fields(line, env)
	if err != nil {
		return "", err
	}
	return words[0], nil
}

// ResolveProgram resolves a program name to an executable path using the
// PATH (and PATHEXT on Windows) of env. Names containing a path separator
// are resolved relative to workDir.
func ResolveProgram(name, workDir string, env map[string]string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		workDir = wd
	}

	path, err := interp.LookPathDir(workDir, expand.ListEnviron(EnvToSlice(env)...), name)
	if err != nil {
		if strings.ContainsAny(name, `/\`) {
			candidate := name
			if !filepath.IsAbs(candidate) {
				candidate = filepath.Join(workDir, candidate)
			}
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return "", fmt.Errorf("%s: %w", name, fs.ErrPermission)
			}
		}
		return "", &ProgramNotFoundError{Program: name, Err: err}
	}
	return path, nil
}

// launchExitCode maps a failure to start a process onto the shell's
// conventional codes.
func launchExitCode(err error) ExitCode {
	if errors.Is(err, fs.ErrPermission) {
		return ExitNotExecutable
	}
	return ExitNotFound
}
