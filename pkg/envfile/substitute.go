// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrSubstitution is the sentinel error wrapped by SubstitutionError.
var ErrSubstitution = errors.New("invalid substitution")

type (
	// SubstitutionVars supplies the values for {name} substitutions.
	SubstitutionVars struct {
		// PosArgs are the extra command-line arguments given after "--".
		PosArgs []string
		// ToxIniDir is the directory containing the environment file.
		ToxIniDir string
		// ToxWorkDir is the per-project work directory (.envrun by default).
		ToxWorkDir string
		// EnvName is the name of the environment being run.
		EnvName EnvName
		// EnvDir is the environment's private directory under ToxWorkDir.
		EnvDir string
		// EnvTmpDir is a scratch directory under EnvDir.
		EnvTmpDir string
		// LookupEnv resolves {env:KEY}; os.LookupEnv is used when nil.
		LookupEnv func(key string) (string, bool)
	}

	// SubstitutionError reports an unknown or malformed {...} reference.
	SubstitutionError struct {
		Text   string
		Reason string
	}
)

// Error implements the error interface.
func (e *SubstitutionError) Error() string {
	return fmt.Sprintf("substitution %q: %s", e.Text, e.Reason)
}

// Unwrap returns ErrSubstitution for errors.Is compatibility.
func (e *SubstitutionError) Unwrap() error { return ErrSubstitution }

// ExpandCommand returns the command line with all substitutions applied.
func ExpandCommand(cmd Command, vars SubstitutionVars) (string, error) {
	return Expand(cmd.Line, vars)
}

// Expand replaces {name} references in text:
//
//	{posargs} {posargs:default}   extra arguments, shell-quoted, or the default
//	{toxinidir} {toxworkdir}      file and work directories
//	{envname} {envdir} {envtmpdir}
//	{env:KEY} {env:KEY:default}   host environment
//	{/} {:}                       path and list separators
//
// Defaults may themselves contain substitutions. "\{" and "\}" produce
// literal braces.
func Expand(text string, vars SubstitutionVars) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && (text[i+1] == '{' || text[i+1] == '}'):
			b.WriteByte(text[i+1])
			i++
		case c == '{':
			end, err := matchingBrace(text, i)
			if err != nil {
				return "", err
			}
			value, err := resolveSubstitution(text[i+1:end], vars)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
			i = end
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

func matchingBrace(text string, open int) (int, error) {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, &SubstitutionError{Text: text[open:], Reason: "missing closing brace"}
}

func resolveSubstitution(ref string, vars SubstitutionVars) (string, error) {
	name, def, hasDefault := strings.Cut(ref, ":")

	switch name {
	case "posargs":
		if len(vars.PosArgs) == 0 {
			if hasDefault {
				return Expand(def, vars)
			}
			return "", nil
		}
		return quoteArgs(vars.PosArgs)
	case "toxinidir":
		return vars.ToxIniDir, nil
	case "toxworkdir":
		return vars.ToxWorkDir, nil
	case "envname":
		return string(vars.EnvName), nil
	case "envdir":
		return vars.EnvDir, nil
	case "envtmpdir":
		return vars.EnvTmpDir, nil
	case "/":
		return string(os.PathSeparator), nil
	case "":
		if ref == ":" {
			return string(os.PathListSeparator), nil
		}
	case "env":
		key, envDef, keyHasDefault := strings.Cut(def, ":")
		if !hasDefault || key == "" {
			return "", &SubstitutionError{Text: "{" + ref + "}", Reason: "missing variable name"}
		}
		lookup := vars.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		if v, ok := lookup(key); ok {
			return v, nil
		}
		if keyHasDefault {
			return Expand(envDef, vars)
		}
		return "", nil
	}

	return "", &SubstitutionError{Text: "{" + ref + "}", Reason: "unknown substitution"}
}

// quoteArgs joins args so that shell word splitting yields them unchanged.
func quoteArgs(args []string) (string, error) {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			return "", &SubstitutionError{Text: a, Reason: err.Error()}
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
