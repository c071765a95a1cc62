// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	probeAttempts = 3
	probeBackoff  = 200 * time.Millisecond
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation of CLI-based engines.
	// Docker and Podman embed it and only differ in their version template.
	BaseCLIEngine struct {
		name          string
		binaryPath    string
		execCommand   ExecCommandFunc
		versionFormat string
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithBinaryPath overrides the CLI path resolved from PATH.
func WithBinaryPath(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.binaryPath = path
	}
}

// NewBaseCLIEngine creates a new base engine for the named CLI. The binary is
// resolved from PATH unless WithBinaryPath is given.
func NewBaseCLIEngine(name, versionFormat string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	path, _ := exec.LookPath(name)
	e := &BaseCLIEngine{
		name:          name,
		binaryPath:    path,
		execCommand:   exec.CommandContext,
		versionFormat: versionFormat,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// Available reports whether the CLI is installed and the engine answers a
// version query. Transient engine errors are retried a few times.
func (e *BaseCLIEngine) Available(ctx context.Context) bool {
	if e.binaryPath == "" {
		return false
	}
	_, err := e.Version(ctx)
	return err == nil
}

// Version returns the server version reported by the engine.
func (e *BaseCLIEngine) Version(ctx context.Context) (string, error) {
	if e.binaryPath == "" {
		return "", &EngineNotAvailableError{Engine: e.name, Reason: e.name + " was not found in PATH"}
	}

	var version string
	err := retryTransient(ctx, probeAttempts, probeBackoff, func() error {
		out, err := e.RunCommandWithOutput(ctx, "version", "--format", e.versionFormat)
		if err != nil {
			return err
		}
		version = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", e.name, err)
	}
	return version, nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
// Stderr is folded into the error so daemon connection failures are visible.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(errOut.String()); msg != "" {
			return "", fmt.Errorf("command %s %v failed: %w: %s", e.binaryPath, args, err, msg)
		}
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}
