// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os"
)

type (
	// EnvOptions describes the environment of one envrun environment. Values
	// are expected to be fully substituted already.
	EnvOptions struct {
		// Name is the environment name, exported as ENVRUN_ENV_NAME.
		Name string
		// Dir is the environment's work directory, exported as ENVRUN_ENV_DIR.
		Dir string
		// BaseDir resolves relative SetEnvFiles paths.
		BaseDir string
		// PassEnv are extra host variable patterns to inherit.
		PassEnv []string
		// SetEnvFiles are dotenv files loaded in order.
		SetEnvFiles []string
		// SetEnv are explicit assignments.
		SetEnv map[string]string
	}

	// EnvBuilder builds environment variables for command execution.
	// It applies a 4-level precedence hierarchy (higher number wins):
	//
	//  1. Host environment, filtered by DefaultPassEnv and passenv
	//  2. setenv dotenv files ("file|PATH"), in declaration order
	//  3. setenv assignments
	//  4. ENVRUN_ENV_NAME, ENVRUN_ENV_DIR, TOX_ENV_NAME and TOX_ENV_DIR
	EnvBuilder interface {
		Build(opts EnvOptions) (map[string]string, error)
	}

	// DefaultEnvBuilder implements the standard precedence for environment building.
	DefaultEnvBuilder struct {
		// Environ returns the host environment as "KEY=VALUE" strings.
		// When nil, os.Environ() is used.
		Environ func() []string
	}

	// MockEnvBuilder is a test helper that returns a fixed environment map.
	MockEnvBuilder struct {
		// Env is the environment map to return from Build
		Env map[string]string
		// Err is the error to return from Build (if non-nil)
		Err error
	}
)

// NewDefaultEnvBuilder creates a new DefaultEnvBuilder.
func NewDefaultEnvBuilder() *DefaultEnvBuilder {
	return &DefaultEnvBuilder{}
}

// Build constructs the environment map following the precedence above.
func (b *DefaultEnvBuilder) Build(opts EnvOptions) (map[string]string, error) {
	environ := b.Environ
	if environ == nil {
		environ = os.Environ
	}

	env := filterHostEnv(environ(), opts.PassEnv)

	for _, path := range opts.SetEnvFiles {
		if err := LoadEnvFile(env, path, opts.BaseDir); err != nil {
			return nil, err
		}
	}

	maps.Copy(env, opts.SetEnv)

	if opts.Name != "" {
		env[EnvVarEnvName] = opts.Name
		env[EnvVarToxEnvName] = opts.Name
	}
	if opts.Dir != "" {
		env[EnvVarEnvDir] = opts.Dir
		env[EnvVarToxEnvDir] = opts.Dir
	}

	return env, nil
}

// Build returns the mock environment or error.
func (m *MockEnvBuilder) Build(_ EnvOptions) (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Env == nil {
		return make(map[string]string), nil
	}
	// Return a copy to prevent mutations
	return maps.Clone(m.Env), nil
}
