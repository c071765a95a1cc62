// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"bytes"
	"maps"

	"github.com/pelletier/go-toml/v2"
)

type (
	// tomlDocument is the on-disk shape of envrun.toml. Environments are an
	// array of tables so that declaration order survives decoding.
	tomlDocument struct {
		Settings tomlSettings `toml:"settings"`
		Base     *tomlEnv     `toml:"base,omitempty"`
		Env      []tomlEnv    `toml:"env"`
	}

	tomlSettings struct {
		SkipSdist  bool     `toml:"skipsdist,omitempty"`
		EnvList    []string `toml:"envlist,omitempty"`
		MinVersion string   `toml:"minversion,omitempty"`
	}

	tomlEnv struct {
		Name         string            `toml:"name,omitempty"`
		Description  *string           `toml:"description,omitempty"`
		Deps         []string          `toml:"deps,omitempty"`
		Externals    []string          `toml:"externals,omitempty"`
		CommandsPre  []string          `toml:"commands_pre,omitempty"`
		Commands     []string          `toml:"commands,omitempty"`
		CommandsPost []string          `toml:"commands_post,omitempty"`
		SetEnv       map[string]string `toml:"setenv,omitempty"`
		SetEnvFiles  []string          `toml:"setenv_files,omitempty"`
		PassEnv      []string          `toml:"passenv,omitempty"`
		ChangeDir    *string           `toml:"changedir,omitempty"`
		IgnoreErrors *bool             `toml:"ignore_errors,omitempty"`
		Depends      []string          `toml:"depends,omitempty"`
		Runtime      *string           `toml:"runtime,omitempty"`
	}
)

// ParseTOML decodes an envrun.toml document. Unknown keys are rejected.
//
//	[settings]
//	envlist = ["lint", "test"]
//
//	[base]
//	externals = ["poetry"]
//
//	[[env]]
//	name = "lint"
//	commands = ["poetry install", "poetry run pre-commit run --all-files"]
func ParseTOML(path string, data []byte) (*File, error) {
	var doc tomlDocument
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f := &File{
		Path:   path,
		Format: FormatTOML,
		Settings: Settings{
			SkipSdist:  doc.Settings.SkipSdist,
			MinVersion: doc.Settings.MinVersion,
		},
	}
	for _, item := range doc.Settings.EnvList {
		names, err := expandEnvList(item)
		if err != nil {
			return nil, &ParseError{Path: path, Section: "settings", Key: "envlist", Err: err}
		}
		f.Settings.EnvList = append(f.Settings.EnvList, names...)
	}

	base := tomlEnv{}
	if doc.Base != nil {
		base = *doc.Base
	}

	for _, raw := range doc.Env {
		env, err := raw.toEnvironment(EnvName(raw.Name), base)
		if err != nil {
			return nil, &ParseError{Path: path, Section: "env." + raw.Name, Err: err}
		}
		f.Environments = append(f.Environments, env)
	}

	if doc.Base != nil {
		for _, name := range f.Settings.EnvList {
			if _, ok := f.Lookup(name); ok {
				continue
			}
			env, err := tomlEnv{}.toEnvironment(name, base)
			if err != nil {
				return nil, &ParseError{Path: path, Section: "base", Err: err}
			}
			f.Environments = append(f.Environments, env)
		}
	}

	return f, nil
}

func (t tomlEnv) toEnvironment(name EnvName, base tomlEnv) (*Environment, error) {
	env := &Environment{Name: name}

	env.Description = pick(t.Description, base.Description, "")
	env.Deps = pickSlice(t.Deps, base.Deps)
	for _, e := range pickSlice(t.Externals, base.Externals) {
		env.Externals = append(env.Externals, ExternalPattern(e))
	}

	var err error
	if env.CommandsPre, err = parseCommandLines(pickSlice(t.CommandsPre, base.CommandsPre)); err != nil {
		return nil, err
	}
	if env.Commands, err = parseCommandLines(pickSlice(t.Commands, base.Commands)); err != nil {
		return nil, err
	}
	if env.CommandsPost, err = parseCommandLines(pickSlice(t.CommandsPost, base.CommandsPost)); err != nil {
		return nil, err
	}

	if t.SetEnv != nil {
		env.SetEnv = maps.Clone(t.SetEnv)
	} else if base.SetEnv != nil {
		env.SetEnv = maps.Clone(base.SetEnv)
	}
	env.SetEnvFiles = pickSlice(t.SetEnvFiles, base.SetEnvFiles)
	env.PassEnv = pickSlice(t.PassEnv, base.PassEnv)
	env.ChangeDir = pick(t.ChangeDir, base.ChangeDir, "")
	env.IgnoreErrors = pick(t.IgnoreErrors, base.IgnoreErrors, false)
	for _, d := range pickSlice(t.Depends, base.Depends) {
		env.Depends = append(env.Depends, EnvName(d))
	}

	if env.Runtime, err = ParseRuntimeMode(pick(t.Runtime, base.Runtime, "")); err != nil {
		return nil, err
	}

	return env, nil
}

// EncodeTOML renders f as an envrun.toml document.
func EncodeTOML(f *File) ([]byte, error) {
	doc := tomlDocument{
		Settings: tomlSettings{
			SkipSdist:  f.Settings.SkipSdist,
			MinVersion: f.Settings.MinVersion,
		},
	}
	for _, n := range f.Settings.EnvList {
		doc.Settings.EnvList = append(doc.Settings.EnvList, string(n))
	}

	for _, env := range f.Environments {
		t := tomlEnv{
			Name:         string(env.Name),
			Deps:         env.Deps,
			CommandsPre:  commandStrings(env.CommandsPre),
			Commands:     commandStrings(env.Commands),
			CommandsPost: commandStrings(env.CommandsPost),
			SetEnv:       env.SetEnv,
			SetEnvFiles:  env.SetEnvFiles,
			PassEnv:      env.PassEnv,
		}
		if env.Description != "" {
			t.Description = &env.Description
		}
		if env.ChangeDir != "" {
			t.ChangeDir = &env.ChangeDir
		}
		if env.IgnoreErrors {
			t.IgnoreErrors = &env.IgnoreErrors
		}
		if env.Runtime != RuntimeDefault {
			rt := string(env.Runtime)
			t.Runtime = &rt
		}
		for _, e := range env.Externals {
			t.Externals = append(t.Externals, string(e))
		}
		for _, d := range env.Depends {
			t.Depends = append(t.Depends, string(d))
		}
		doc.Env = append(doc.Env, t)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func commandStrings(cmds []Command) []string {
	if len(cmds) == 0 {
		return nil
	}
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

func pick[T any](own, base *T, fallback T) T {
	if own != nil {
		return *own
	}
	if base != nil {
		return *base
	}
	return fallback
}

func pickSlice[T any](own, base []T) []T {
	if own != nil {
		return own
	}
	return base
}
