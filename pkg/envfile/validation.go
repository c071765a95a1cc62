// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the structural invariants of f and collects every failure
// into a single *InvalidFileError:
//   - environment names are well-formed and unique
//   - envlist and depends refer to declared environments
//   - runtime modes and external patterns are valid
//   - every environment has at least one command
func (f *File) Validate() error {
	var errs []error

	seen := make(map[EnvName]bool, len(f.Environments))
	for _, env := range f.Environments {
		if ok, nameErrs := env.Name.IsValid(); !ok {
			errs = append(errs, nameErrs...)
		}
		if seen[env.Name] {
			errs = append(errs, fmt.Errorf("environment %q is declared more than once", env.Name))
		}
		seen[env.Name] = true
	}

	for _, name := range f.Settings.EnvList {
		if !seen[name] {
			errs = append(errs, fmt.Errorf("envlist: %w", &UnknownEnvError{Name: string(name), Available: f.Names()}))
		}
	}

	for _, env := range f.Environments {
		errs = append(errs, env.validate(seen)...)
	}

	if len(errs) > 0 {
		return &InvalidFileError{Path: f.Path, FieldErrors: errs}
	}
	return nil
}

func (e *Environment) validate(declared map[EnvName]bool) []error {
	var errs []error
	prefix := func(err error) error { return fmt.Errorf("%s: %w", e.Name, err) }

	if ok, modeErrs := e.Runtime.IsValid(); !ok {
		for _, err := range modeErrs {
			errs = append(errs, prefix(err))
		}
	}

	for _, p := range e.Externals {
		if ok, patErrs := p.IsValid(); !ok {
			for _, err := range patErrs {
				errs = append(errs, prefix(err))
			}
		}
	}

	for _, dep := range e.Depends {
		switch {
		case dep == e.Name:
			errs = append(errs, prefix(fmt.Errorf("depends on itself")))
		case !declared[dep]:
			errs = append(errs, prefix(fmt.Errorf("depends: unknown environment %q", dep)))
		}
	}

	if len(e.Commands) == 0 && len(e.CommandsPre) == 0 && len(e.CommandsPost) == 0 {
		errs = append(errs, prefix(errors.New("no commands declared")))
	}

	for _, cmd := range e.AllCommands() {
		if strings.TrimSpace(cmd.Line) == "" {
			errs = append(errs, prefix(errEmptyCommand))
		}
	}

	for key := range e.SetEnv {
		if strings.ContainsAny(key, " \t=") {
			errs = append(errs, prefix(fmt.Errorf("setenv: invalid variable name %q", key)))
		}
	}

	return errs
}

// Select resolves a user selection into environments, in the order given.
// An empty selection means the envlist, or every environment when the envlist
// is empty. The name "ALL" selects every environment. Comma-separated items
// are accepted ("lint,test") and duplicates are dropped.
func (f *File) Select(names []string) ([]*Environment, error) {
	var requested []EnvName
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if part = strings.TrimSpace(part); part != "" {
				requested = append(requested, EnvName(part))
			}
		}
	}

	switch {
	case len(requested) == 0 && len(f.Settings.EnvList) > 0:
		requested = f.Settings.EnvList
	case len(requested) == 0, containsAll(requested):
		requested = f.Names()
	}

	out := make([]*Environment, 0, len(requested))
	picked := make(map[EnvName]bool, len(requested))
	for _, name := range requested {
		if picked[name] {
			continue
		}
		env, ok := f.Lookup(name)
		if !ok {
			return nil, &UnknownEnvError{Name: string(name), Available: f.Names()}
		}
		picked[name] = true
		out = append(out, env)
	}
	return out, nil
}

func containsAll(names []EnvName) bool {
	for _, n := range names {
		if n == AllEnvs {
			return true
		}
	}
	return false
}
