// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime interprets command lines with an embedded POSIX shell, so
// pipes, redirections and && chains behave the same on every platform.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// Virtual runtime is always available as it's built-in
	return true
}

// Validate checks if a command line can be executed
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Line) == "" {
		return ErrEmptyCommand
	}
	if _, err := parseLine(ctx.Line); err != nil {
		return err
	}
	return validateWorkDir(ctx.WorkDir)
}

// Execute runs the command line with the context's stdio
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, ctx.Stdin, ctx.Stdout, ctx.Stderr)
}

// ExecuteCapture runs the command line and captures its output
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	var stdout, stderr bytes.Buffer
	result := r.run(ctx, nil, &stdout, &stderr)
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

func (r *VirtualRuntime) run(ctx *ExecutionContext, stdin io.Reader, stdout, stderr io.Writer) *Result {
	prog, err := parseLine(ctx.Line)
	if err != nil {
		return NewErrorResult(ExitFailure, err)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(EnvToSlice(ctx.Env)...)),
		interp.StdIO(stdin, stdout, stderr),
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(ExitFailure, fmt.Errorf("failed to create interpreter: %w", err))
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	if err := runner.Run(execCtx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return NewExitCodeResult(ExitCode(status))
		}
		return NewErrorResult(ExitFailure, fmt.Errorf("command execution failed: %w", err))
	}

	return NewSuccessResult()
}

func parseLine(line string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, fmt.Errorf("command syntax error: %w", err)
	}
	return prog, nil
}
