// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"envrun-cli/pkg/envfile"
)

// Runtime type constants for the supported execution modes.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

type (
	// ExecutionContext contains everything needed to run one command line.
	ExecutionContext struct {
		// Context is the Go context for cancellation
		Context context.Context
		// Line is the command line after substitution
		Line string
		// WorkDir is the directory the command runs in
		WorkDir string
		// Env is the complete environment of the command
		Env map[string]string
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
		// Stdin is where to read standard input
		Stdin io.Reader
	}

	// Runtime defines the interface for command execution
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Execute runs a command line in this runtime
		Execute(ctx *ExecutionContext) *Result
		// Available returns whether this runtime is available on the current system
		Available() bool
		// Validate checks if a command line can be executed with this runtime
		Validate(ctx *ExecutionContext) error
	}

	// CapturingRuntime is implemented by runtimes that support capturing output.
	CapturingRuntime interface {
		// ExecuteCapture runs a command line and captures stdout/stderr.
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Registry holds all available runtimes
	Registry struct {
		runtimes    map[RuntimeType]Runtime
		defaultType RuntimeType
	}
)

// NewExecutionContext creates a new execution context with defaults
func NewExecutionContext(ctx context.Context, line string) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecutionContext{
		Context: ctx,
		Line:    line,
		Env:     make(map[string]string),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
	}
}

// NewRegistry creates a new runtime registry. Environments without an explicit
// runtime use the native runtime until SetDefault says otherwise.
func NewRegistry() *Registry {
	return &Registry{
		runtimes:    make(map[RuntimeType]Runtime),
		defaultType: RuntimeTypeNative,
	}
}

// Register adds a runtime to the registry
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// SetDefault selects the runtime used for environments that do not name one.
func (r *Registry) SetDefault(typ RuntimeType) {
	r.defaultType = typ
}

// Default returns the runtime type used for environments that do not name one.
func (r *Registry) Default() RuntimeType {
	return r.defaultType
}

// Get returns a runtime by type
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	return rt, nil
}

// ForMode returns the runtime for an environment's runtime mode, falling
// back to the registry default when the mode is empty.
func (r *Registry) ForMode(mode envfile.RuntimeMode) (Runtime, error) {
	if mode == envfile.RuntimeDefault {
		return r.Get(r.defaultType)
	}
	return r.Get(RuntimeType(mode))
}

// Available returns all available runtimes, sorted by name.
func (r *Registry) Available() []RuntimeType {
	types := slices.Sorted(maps.Keys(r.runtimes))
	return slices.DeleteFunc(types, func(typ RuntimeType) bool {
		return !r.runtimes[typ].Available()
	})
}

// Execute runs a command line using the runtime selected by mode
func (r *Registry) Execute(mode envfile.RuntimeMode, ctx *ExecutionContext) *Result {
	rt, err := r.ForMode(mode)
	if err != nil {
		return NewErrorResult(ExitFailure, err)
	}

	if !rt.Available() {
		return NewErrorResult(ExitFailure, fmt.Errorf("runtime '%s' is not available on this system", rt.Name()))
	}

	if err := rt.Validate(ctx); err != nil {
		return NewErrorResult(ExitFailure, err)
	}

	return rt.Execute(ctx)
}

// EnvToSlice converts a map of environment variables to a KEY=VALUE slice,
// sorted by key so child processes see a stable order.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		result = append(result, k+"="+env[k])
	}
	return result
}

// FilterEnvrunEnvVars filters the identification variables of an enclosing
// envrun environment out of environ, so a nested envrun invocation starts
// from the caller's host environment rather than inheriting a stale name.
func FilterEnvrunEnvVars(environ []string) []string {
	return slices.DeleteFunc(slices.Clone(environ), func(e string) bool {
		name, _, ok := strings.Cut(e, "=")
		return ok && shouldFilterEnvVar(name)
	})
}

func shouldFilterEnvVar(name string) bool {
	switch name {
	case EnvVarEnvName, EnvVarEnvDir, EnvVarToxEnvName, EnvVarToxEnvDir:
		return true
	}
	return false
}
