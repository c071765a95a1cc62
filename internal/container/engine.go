// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrEngineNotAvailable = errors.New("container engine not available")

type (
	// Engine is a container engine CLI that can be probed.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// BinaryPath returns the resolved CLI path, or "" when not installed
		BinaryPath() string
		// Available reports whether the CLI is installed and its daemon answers
		Available(ctx context.Context) bool
		// Version returns the server version reported by the engine
		Version(ctx context.Context) (string, error)
	}

	// EngineType identifies the container engine type
	EngineType string

	// EngineNotAvailableError is returned when no usable engine was found.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable so callers can use errors.Is for programmatic detection.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// IsEngineName reports whether a program name (or path) names a container
// engine CLI. A trailing ".exe" is ignored.
func IsEngineName(program string) bool {
	_, ok := engineTypeOf(program)
	return ok
}

func engineTypeOf(program string) (EngineType, bool) {
	base := strings.TrimSuffix(strings.ToLower(filepath.Base(filepath.FromSlash(program))), ".exe")
	switch EngineType(base) {
	case EngineTypeDocker:
		return EngineTypeDocker, true
	case EngineTypePodman:
		return EngineTypePodman, true
	}
	return "", false
}

// ForProgram returns the engine for a container CLI program name.
func ForProgram(program string, opts ...BaseCLIEngineOption) (Engine, error) {
	typ, ok := engineTypeOf(program)
	if !ok {
		return nil, fmt.Errorf("%q is not a container engine", program)
	}
	return newEngineOfType(typ, opts...), nil
}

func newEngineOfType(typ EngineType, opts ...BaseCLIEngineOption) Engine {
	if typ == EngineTypePodman {
		return NewPodmanEngine(opts...)
	}
	return NewDockerEngine(opts...)
}

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one does not answer.
func NewEngine(ctx context.Context, preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	var fallback EngineType
	switch preferredType {
	case EngineTypePodman:
		fallback = EngineTypeDocker
	case EngineTypeDocker:
		fallback = EngineTypePodman
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}

	if engine := newEngineOfType(preferredType, opts...); engine.Available(ctx) {
		return engine, nil
	}
	if engine := newEngineOfType(fallback, opts...); engine.Available(ctx) {
		return engine, nil
	}
	return nil, &EngineNotAvailableError{
		Engine: string(preferredType),
		Reason: fmt.Sprintf("%s is not installed or not accessible, and %s fallback is also not available", preferredType, fallback),
	}
}

// AutoDetectEngine tries to find an available container engine, preferring Docker.
func AutoDetectEngine(ctx context.Context, opts ...BaseCLIEngineOption) (Engine, error) {
	for _, typ := range []EngineType{EngineTypeDocker, EngineTypePodman} {
		if engine := newEngineOfType(typ, opts...); engine.Available(ctx) {
			return engine, nil
		}
	}
	return nil, &EngineNotAvailableError{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
