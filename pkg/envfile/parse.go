// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ToxFileName is the tox-compatible INI environment file name.
	ToxFileName = "tox.ini"
	// TOMLFileName is the native TOML environment file name.
	TOMLFileName = "envrun.toml"

	// DefaultMaxFileSize bounds how much of an environment file is read (1 MiB).
	DefaultMaxFileSize = 1 << 20
)

var (
	// ErrEnvFileNotFound is returned by Find when no environment file exists
	// in the start directory or any of its ancestors.
	ErrEnvFileNotFound = errors.New("no environment file found")
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("failed to parse environment file")
	// ErrFileTooLarge is returned when an environment file exceeds DefaultMaxFileSize.
	ErrFileTooLarge = errors.New("environment file too large")

	// searchOrder lists the file names Find looks for, in precedence order.
	searchOrder = []string{ToxFileName, TOMLFileName}
)

// ParseError describes a syntax or structure problem at a location in an environment file.
type ParseError struct {
	Path    string
	Section string
	Key     string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
	} else {
		b.WriteString("<memory>")
	}
	if e.Section != "" {
		b.WriteString(": [")
		b.WriteString(e.Section)
		b.WriteString("]")
	}
	if e.Key != "" {
		b.WriteString(": ")
		b.WriteString(e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse so callers can detect any parse failure with errors.Is.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Parse decodes data according to the extension of path. Files ending in
// ".toml" are decoded as TOML; everything else is treated as tox INI.
func Parse(path string, data []byte) (*File, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(path, data)
	}
	return ParseINI(path, data)
}

// Load reads, parses and validates the environment file at path.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat environment file: %w", err)
	}
	if info.Size() > DefaultMaxFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes, limit %d)", path, ErrFileTooLarge, info.Size(), DefaultMaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	f, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Find walks from startDir up to the filesystem root and returns the first
// environment file it encounters. Within a directory tox.ini wins over envrun.toml.
func Find(startDir string) (string, error) {
	return FindNamed(startDir, searchOrder...)
}

// FindNamed is Find with an explicit list of file names, tried in order
// within each directory.
func FindNamed(startDir string, names ...string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched from %s)", ErrEnvFileNotFound, startDir)
		}
		dir = parent
	}
}
