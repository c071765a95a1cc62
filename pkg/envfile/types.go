// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// FormatINI is the tox INI dialect.
	FormatINI Format = "ini"
	// FormatTOML is the envrun TOML layout.
	FormatTOML Format = "toml"

	// RuntimeDefault defers to the configured default runtime.
	RuntimeDefault RuntimeMode = ""
	// RuntimeNative runs argv directly without a shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs the line through the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// AllEnvs selects every declared environment.
	AllEnvs = "ALL"
)

var (
	// ErrInvalidEnvName is the sentinel error wrapped by InvalidEnvNameError.
	ErrInvalidEnvName = errors.New("invalid environment name")
	// ErrInvalidRuntimeMode is the sentinel error wrapped by InvalidRuntimeModeError.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidExternalPattern is the sentinel error wrapped by InvalidExternalPatternError.
	ErrInvalidExternalPattern = errors.New("invalid external pattern")
	// ErrInvalidFile is the sentinel error wrapped by InvalidFileError.
	ErrInvalidFile = errors.New("invalid environment file")
	// ErrUnknownEnv is the sentinel error wrapped by UnknownEnvError.
	ErrUnknownEnv = errors.New("unknown environment")

	envNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

type (
	// Format identifies the on-disk encoding of an environment file.
	Format string

	// EnvName is the name of an environment, e.g. "lint" or "py312-unit".
	EnvName string

	// InvalidEnvNameError is returned when an EnvName does not match the allowed pattern.
	InvalidEnvNameError struct {
		Value EnvName
	}

	// RuntimeMode selects how an environment's commands are executed.
	RuntimeMode string

	// InvalidRuntimeModeError is returned when a RuntimeMode is not recognized.
	InvalidRuntimeModeError struct {
		Value RuntimeMode
	}

	// ExternalPattern names an executable an environment may invoke.
	// It is a bare program name ("poetry"), a path ("/usr/bin/make"),
	// or a path.Match glob ("/opt/tools/*").
	ExternalPattern string

	// InvalidExternalPatternError is returned when an ExternalPattern is empty or malformed.
	InvalidExternalPatternError struct {
		Value  ExternalPattern
		Reason string
	}

	// Command is a single command line of an environment.
	Command struct {
		// Line is the command text with continuations joined and the ignore prefix removed.
		Line string
		// IgnoreExit is set when the line was prefixed with "-"; a non-zero
		// exit status of this command never fails the environment.
		IgnoreExit bool
	}

	// Environment is a named, isolated set of commands.
	Environment struct {
		Name         EnvName
		Description  string
		Deps         []string
		Externals    []ExternalPattern
		CommandsPre  []Command
		Commands     []Command
		CommandsPost []Command
		SetEnv       map[string]string
		// SetEnvFiles are dotenv files named by "file|PATH" setenv lines,
		// loaded before SetEnv is applied.
		SetEnvFiles  []string
		PassEnv      []string
		// ChangeDir is the working directory for commands, relative to the file's directory.
		ChangeDir    string
		IgnoreErrors bool
		Depends      []EnvName
		Runtime      RuntimeMode
	}

	// Settings holds the file-global options ([tox] section).
	Settings struct {
		SkipSdist  bool
		EnvList    []EnvName
		MinVersion string
	}

	// File is a parsed environment file.
	File struct {
		// Path is the file the model was read from (empty for in-memory files).
		Path         string
		Format       Format
		Settings     Settings
		Environments []*Environment
	}

	// InvalidFileError collects every validation failure of a File.
	InvalidFileError struct {
		Path        string
		FieldErrors []error
	}

	// UnknownEnvError is returned when a selection names an environment the file does not declare.
	UnknownEnvError struct {
		Name      string
		Available []EnvName
	}
)

// Error implements the error interface.
func (e *InvalidEnvNameError) Error() string {
	return fmt.Sprintf("invalid environment name %q (must match %s)", e.Value, envNamePattern.String())
}

// Unwrap returns ErrInvalidEnvName for errors.Is compatibility.
func (e *InvalidEnvNameError) Unwrap() error { return ErrInvalidEnvName }

// IsValid returns whether the EnvName is well-formed.
func (n EnvName) IsValid() (bool, []error) {
	if !envNamePattern.MatchString(string(n)) {
		return false, []error{&InvalidEnvNameError{Value: n}}
	}
	return true, nil
}

// String returns the name as a plain string.
func (n EnvName) String() string { return string(n) }

// Error implements the error interface.
func (e *InvalidRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeMode for errors.Is compatibility.
func (e *InvalidRuntimeModeError) Unwrap() error { return ErrInvalidRuntimeMode }

// IsValid returns whether the RuntimeMode is recognized. The zero value is valid.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeDefault, RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeModeError{Value: m}}
	}
}

// ParseRuntimeMode converts a string into a validated RuntimeMode.
func ParseRuntimeMode(s string) (RuntimeMode, error) {
	m := RuntimeMode(strings.TrimSpace(s))
	if ok, errs := m.IsValid(); !ok {
		return RuntimeDefault, errs[0]
	}
	return m, nil
}

// Error implements the error interface.
func (e *InvalidExternalPatternError) Error() string {
	return fmt.Sprintf("invalid external %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidExternalPattern for errors.Is compatibility.
func (e *InvalidExternalPatternError) Unwrap() error { return ErrInvalidExternalPattern }

// IsValid returns whether the pattern is non-empty and a well-formed glob.
func (p ExternalPattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidExternalPatternError{Value: p, Reason: "must not be empty"}}
	}
	if _, err := path.Match(string(p), ""); err != nil {
		return false, []error{&InvalidExternalPatternError{Value: p, Reason: err.Error()}}
	}
	return true, nil
}

// IsGlob reports whether the pattern contains glob metacharacters.
func (p ExternalPattern) IsGlob() bool {
	return strings.ContainsAny(string(p), "*?[")
}

// Matches reports whether program (as written in a command, or resolved to a
// path) is permitted by this pattern. Bare patterns match on the program's
// base name; patterns containing a separator match the full path.
func (p ExternalPattern) Matches(program string) bool {
	pat := string(p)
	program = filepath.ToSlash(program)
	if strings.Contains(pat, "/") {
		ok, _ := path.Match(pat, program)
		return ok
	}
	ok, _ := path.Match(pat, path.Base(program))
	return ok
}

// Error implements the error interface.
func (e *InvalidFileError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	where := e.Path
	if where == "" {
		where = "<memory>"
	}
	return fmt.Sprintf("%s: %d problem(s): %s", where, len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidFile for errors.Is compatibility.
func (e *InvalidFileError) Unwrap() error { return ErrInvalidFile }

// Error implements the error interface.
func (e *UnknownEnvError) Error() string {
	names := make([]string, len(e.Available))
	for i, n := range e.Available {
		names[i] = string(n)
	}
	return fmt.Sprintf("unknown environment %q (available: %s)", e.Name, strings.Join(names, ", "))
}

// Unwrap returns ErrUnknownEnv for errors.Is compatibility.
func (e *UnknownEnvError) Unwrap() error { return ErrUnknownEnv }

// String renders the command the way it is written in a file.
func (c Command) String() string {
	if c.IgnoreExit {
		return "- " + c.Line
	}
	return c.Line
}

// AllCommands returns pre, main and post commands in execution order.
func (e *Environment) AllCommands() []Command {
	all := make([]Command, 0, len(e.CommandsPre)+len(e.Commands)+len(e.CommandsPost))
	all = append(all, e.CommandsPre...)
	all = append(all, e.Commands...)
	return append(all, e.CommandsPost...)
}

// AllowsAnyExternal reports whether the environment places no restriction on
// which programs its commands may run.
func (e *Environment) AllowsAnyExternal() bool {
	return len(e.Externals) == 0
}

// IsAllowed reports whether program matches one of the environment's externals.
func (e *Environment) IsAllowed(program string) bool {
	if e.AllowsAnyExternal() {
		return true
	}
	for _, p := range e.Externals {
		if p.Matches(program) {
			return true
		}
	}
	return false
}

// Names returns the environment names in declaration order.
func (f *File) Names() []EnvName {
	names := make([]EnvName, len(f.Environments))
	for i, env := range f.Environments {
		names[i] = env.Name
	}
	return names
}

// Lookup returns the environment with the given name.
func (f *File) Lookup(name EnvName) (*Environment, bool) {
	for _, env := range f.Environments {
		if env.Name == name {
			return env, true
		}
	}
	return nil, false
}

// Dir returns the directory containing the file, or "." for in-memory files.
func (f *File) Dir() string {
	if f.Path == "" {
		return "."
	}
	return filepath.Dir(f.Path)
}
