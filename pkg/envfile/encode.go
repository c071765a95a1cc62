// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"slices"
	"strconv"
	"strings"
)

const continuationIndent = "    "

// EncodeINI renders f as a canonical tox INI document.
//
// Every environment is written as a fully resolved [testenv:NAME] section, so
// no [testenv] base section is emitted. Multi-valued keys use indented
// continuation lines and setenv keys are sorted. ParseINI(EncodeINI(f))
// yields the same environments with the same ordered commands.
func EncodeINI(f *File) []byte {
	var b strings.Builder

	b.WriteString("[" + toxSection + "]\n")
	writeScalar(&b, "skipsdist", strconv.FormatBool(f.Settings.SkipSdist))
	if len(f.Settings.EnvList) > 0 {
		names := make([]string, len(f.Settings.EnvList))
		for i, n := range f.Settings.EnvList {
			names[i] = string(n)
		}
		writeScalar(&b, "envlist", strings.Join(names, ", "))
	}
	if f.Settings.MinVersion != "" {
		writeScalar(&b, "minversion", f.Settings.MinVersion)
	}

	for _, env := range f.Environments {
		b.WriteString("\n[" + envSectionPrefix + string(env.Name) + "]\n")
		encodeINIEnv(&b, env)
	}

	return []byte(b.String())
}

func encodeINIEnv(b *strings.Builder, env *Environment) {
	if env.Description != "" {
		writeScalar(b, envKeys.description[0], env.Description)
	}
	writeList(b, envKeys.deps[0], env.Deps)

	externals := make([]string, len(env.Externals))
	for i, e := range env.Externals {
		externals[i] = string(e)
	}
	writeList(b, envKeys.externals[0], externals)

	if len(env.SetEnv) > 0 || len(env.SetEnvFiles) > 0 {
		keys := make([]string, 0, len(env.SetEnv))
		for k := range env.SetEnv {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		lines := make([]string, 0, len(env.SetEnvFiles)+len(keys))
		for _, path := range env.SetEnvFiles {
			lines = append(lines, setEnvFilePrefix+path)
		}
		for _, k := range keys {
			lines = append(lines, k+" = "+env.SetEnv[k])
		}
		writeList(b, envKeys.setenv[0], lines)
	}
	writeList(b, envKeys.passenv[0], env.PassEnv)

	if env.ChangeDir != "" {
		writeScalar(b, envKeys.changedir[0], env.ChangeDir)
	}
	if env.IgnoreErrors {
		writeScalar(b, envKeys.ignoreErrors[0], "true")
	}
	if len(env.Depends) > 0 {
		deps := make([]string, len(env.Depends))
		for i, d := range env.Depends {
			deps[i] = string(d)
		}
		writeScalar(b, envKeys.depends[0], strings.Join(deps, ", "))
	}
	if env.Runtime != RuntimeDefault {
		writeScalar(b, envKeys.runtime[0], string(env.Runtime))
	}

	writeList(b, envKeys.commandsPre[0], commandStrings(env.CommandsPre))
	writeList(b, envKeys.commands[0], commandStrings(env.Commands))
	writeList(b, envKeys.commandsPost[0], commandStrings(env.CommandsPost))
}

func writeScalar(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(" = ")
	b.WriteString(value)
	b.WriteString("\n")
}

func writeList(b *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	b.WriteString(key)
	b.WriteString(" =\n")
	for _, v := range values {
		b.WriteString(continuationIndent)
		b.WriteString(v)
		b.WriteString("\n")
	}
}
