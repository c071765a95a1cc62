// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	toxSection       = "tox"
	baseEnvSection   = "testenv"
	envSectionPrefix = "testenv:"
)

// iniLoadOptions matches how tox reads its configuration: indented lines
// continue the previous value and "#" is only a comment at line start.
var iniLoadOptions = ini.LoadOptions{
	AllowPythonMultilineValues: true,
	IgnoreInlineComment:        true,
	KeyValueDelimiters:         "=",
}

// envKeys lists the accepted spellings for each environment setting.
// The first spelling is the canonical one written by EncodeINI.
var envKeys = struct {
	description, deps, externals, commandsPre, commands, commandsPost []string
	setenv, passenv, changedir, ignoreErrors, depends, runtime        []string
}{
	description:  []string{"description"},
	deps:         []string{"deps"},
	externals:    []string{"allowlist_externals", "whitelist_externals"},
	commandsPre:  []string{"commands_pre"},
	commands:     []string{"commands"},
	commandsPost: []string{"commands_post"},
	setenv:       []string{"setenv", "set_env"},
	passenv:      []string{"passenv", "pass_env"},
	changedir:    []string{"changedir", "change_dir"},
	ignoreErrors: []string{"ignore_errors"},
	depends:      []string{"depends"},
	runtime:      []string{"runtime"},
}

// ParseINI decodes a tox-style INI document.
//
// Every [testenv:NAME] section becomes an environment, in file order. Keys
// missing from a named section fall back to the [testenv] base section.
// Names listed in envlist without a section of their own are created from
// the base section alone and appended after the declared ones.
func ParseINI(path string, data []byte) (*File, error) {
	cfg, err := ini.LoadSources(iniLoadOptions, closeContinuationGaps(data))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	f := &File{Path: path, Format: FormatINI}

	if sec, secErr := cfg.GetSection(toxSection); secErr == nil {
		settings, err := decodeINISettings(sec)
		if err != nil {
			return nil, &ParseError{Path: path, Section: toxSection, Key: err.key, Err: err.err}
		}
		f.Settings = settings
	}

	base, secErr := cfg.GetSection(baseEnvSection)
	if secErr != nil {
		base = nil
	}

	for _, sec := range cfg.Sections() {
		if !strings.HasPrefix(sec.Name(), envSectionPrefix) {
			continue
		}
		name := EnvName(strings.TrimSpace(strings.TrimPrefix(sec.Name(), envSectionPrefix)))
		env, err := decodeINIEnv(name, sec, base)
		if err != nil {
			return nil, &ParseError{Path: path, Section: sec.Name(), Key: err.key, Err: err.err}
		}
		f.Environments = append(f.Environments, env)
	}

	if base != nil {
		for _, name := range f.Settings.EnvList {
			if _, ok := f.Lookup(name); ok {
				continue
			}
			env, err := decodeINIEnv(name, nil, base)
			if err != nil {
				return nil, &ParseError{Path: path, Section: baseEnvSection, Key: err.key, Err: err.err}
			}
			f.Environments = append(f.Environments, env)
		}
	}

	return f, nil
}

// closeContinuationGaps drops blank lines that are followed by an indented
// line. tox keeps reading a multi-line value across blank lines, while ini.v1
// ends the value at the first one and reads the next indented line as a key.
func closeContinuationGaps(data []byte) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	out := make([]byte, 0, len(data))

	for i, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 && continuesValue(lines[i+1:]) {
			continue
		}
		out = append(out, line...)
	}
	return out
}

// continuesValue reports whether the first non-blank line in rest is indented.
func continuesValue(rest [][]byte) bool {
	for _, line := range rest {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line[0] == ' ' || line[0] == '\t'
	}
	return false
}

// keyError carries the offending key up to ParseINI, which adds path and section.
type keyError struct {
	key string
	err error
}

func decodeINISettings(sec *ini.Section) (Settings, *keyError) {
	var s Settings

	for _, key := range []string{"skipsdist", "no_package"} {
		if !sec.HasKey(key) {
			continue
		}
		v, err := sec.Key(key).Bool()
		if err != nil {
			return s, &keyError{key: key, err: fmt.Errorf("expected a boolean: %w", err)}
		}
		s.SkipSdist = v
		break
	}

	for _, key := range []string{"envlist", "env_list"} {
		if !sec.HasKey(key) {
			continue
		}
		names, err := expandEnvList(sec.Key(key).String())
		if err != nil {
			return s, &keyError{key: key, err: err}
		}
		s.EnvList = names
		break
	}

	if sec.HasKey("minversion") {
		s.MinVersion = strings.TrimSpace(sec.Key("minversion").String())
	}

	return s, nil
}

func decodeINIEnv(name EnvName, sec, base *ini.Section) (*Environment, *keyError) {
	env := &Environment{Name: name}

	if k, _ := lookupINIKey(envKeys.description, sec, base); k != nil {
		env.Description = strings.Join(splitValueLines(k.String()), " ")
	}
	if k, _ := lookupINIKey(envKeys.deps, sec, base); k != nil {
		env.Deps = splitValueLines(k.String())
	}

	env.Externals = collectExternals(sec, base)

	var kerr *keyError
	if env.CommandsPre, kerr = lookupCommands(envKeys.commandsPre, sec, base); kerr != nil {
		return nil, kerr
	}
	if env.Commands, kerr = lookupCommands(envKeys.commands, sec, base); kerr != nil {
		return nil, kerr
	}
	if env.CommandsPost, kerr = lookupCommands(envKeys.commandsPost, sec, base); kerr != nil {
		return nil, kerr
	}

	if k, key := lookupINIKey(envKeys.setenv, sec, base); k != nil {
		vars, files, err := parseSetEnv(splitValueLines(k.String()))
		if err != nil {
			return nil, &keyError{key: key, err: err}
		}
		env.SetEnv = vars
		env.SetEnvFiles = files
	}
	if k, _ := lookupINIKey(envKeys.passenv, sec, base); k != nil {
		env.PassEnv = splitWords(k.String())
	}
	if k, _ := lookupINIKey(envKeys.changedir, sec, base); k != nil {
		env.ChangeDir = strings.TrimSpace(k.String())
	}
	if k, key := lookupINIKey(envKeys.ignoreErrors, sec, base); k != nil {
		v, err := k.Bool()
		if err != nil {
			return nil, &keyError{key: key, err: fmt.Errorf("expected a boolean: %w", err)}
		}
		env.IgnoreErrors = v
	}
	if k, _ := lookupINIKey(envKeys.depends, sec, base); k != nil {
		for _, d := range splitWords(k.String()) {
			env.Depends = append(env.Depends, EnvName(d))
		}
	}
	if k, key := lookupINIKey(envKeys.runtime, sec, base); k != nil {
		mode, err := ParseRuntimeMode(k.String())
		if err != nil {
			return nil, &keyError{key: key, err: err}
		}
		env.Runtime = mode
	}

	return env, nil
}

// lookupINIKey returns the first spelling of a setting found in sec, then in base.
// A named section that sets any spelling shadows the base section entirely.
func lookupINIKey(spellings []string, sec, base *ini.Section) (*ini.Key, string) {
	for _, s := range []*ini.Section{sec, base} {
		if s == nil {
			continue
		}
		for _, key := range spellings {
			if s.HasKey(key) {
				return s.Key(key), key
			}
		}
	}
	return nil, ""
}

// collectExternals merges every allowlist spelling of the most specific
// section that declares one, keeping first-seen order.
func collectExternals(sec, base *ini.Section) []ExternalPattern {
	for _, s := range []*ini.Section{sec, base} {
		if s == nil {
			continue
		}
		var (
			found bool
			out   []ExternalPattern
			seen  = make(map[ExternalPattern]bool)
		)
		for _, key := range envKeys.externals {
			if !s.HasKey(key) {
				continue
			}
			found = true
			for _, w := range splitWords(s.Key(key).String()) {
				p := ExternalPattern(w)
				if seen[p] {
					continue
				}
				seen[p] = true
				out = append(out, p)
			}
		}
		if found {
			return out
		}
	}
	return nil
}

func lookupCommands(spellings []string, sec, base *ini.Section) ([]Command, *keyError) {
	k, key := lookupINIKey(spellings, sec, base)
	if k == nil {
		return nil, nil
	}
	cmds, err := parseCommandLines(splitValueLines(k.String()))
	if err != nil {
		return nil, &keyError{key: key, err: err}
	}
	return cmds, nil
}
