// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errUnbalancedBraces = errors.New("unbalanced braces")
	errEmptyCommand     = errors.New("command is empty after removing the ignore prefix")
)

// splitValueLines turns a (possibly multi-line) value into its logical lines.
// Surrounding whitespace is trimmed, blank lines and "#" comment lines are
// dropped, and a line ending in a backslash is joined with the next one.
func splitValueLines(value string) []string {
	var (
		out     []string
		pending strings.Builder
	)

	for _, raw := range strings.Split(value, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if cont, ok := strings.CutSuffix(line, "\\"); ok && !strings.HasSuffix(cont, "\\") {
			pending.WriteString(strings.TrimSpace(cont))
			pending.WriteString(" ")
			continue
		}

		pending.WriteString(line)
		out = append(out, strings.TrimSpace(pending.String()))
		pending.Reset()
	}

	if pending.Len() > 0 {
		out = append(out, strings.TrimSpace(pending.String()))
	}
	return out
}

// splitWords splits a list value on newlines, commas and blanks.
func splitWords(value string) []string {
	var out []string
	for _, line := range splitValueLines(value) {
		out = append(out, strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	}
	return out
}

// parseCommandLines converts logical lines into commands, honouring the
// leading "-" that marks a command whose exit status is ignored.
func parseCommandLines(lines []string) ([]Command, error) {
	cmds := make([]Command, 0, len(lines))
	for _, line := range lines {
		cmd, err := parseCommandLine(line)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func parseCommandLine(line string) (Command, error) {
	line = strings.TrimSpace(line)
	rest, ignore := strings.CutPrefix(line, "-")
	if !ignore {
		return Command{Line: line}, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Command{}, errEmptyCommand
	}
	return Command{Line: rest, IgnoreExit: true}, nil
}

// setEnvFilePrefix marks a setenv line that names a dotenv file.
const setEnvFilePrefix = "file|"

// parseSetEnv parses KEY=VALUE lines and "file|PATH" references. Later
// assignments win.
func parseSetEnv(lines []string) (vars map[string]string, files []string, err error) {
	vars = make(map[string]string, len(lines))
	for _, line := range lines {
		if path, ok := strings.CutPrefix(line, setEnvFilePrefix); ok {
			path = strings.TrimSpace(path)
			if path == "" {
				return nil, nil, fmt.Errorf("empty dotenv path in %q", line)
			}
			files = append(files, path)
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, nil, fmt.Errorf("expected KEY=VALUE, got %q", line)
		}
		vars[key] = strings.TrimSpace(value)
	}
	return vars, files, nil
}

// expandEnvList splits an envlist value on commas and newlines and expands
// brace groups, so "py{311,312}-unit, lint" yields py311-unit, py312-unit, lint.
func expandEnvList(value string) ([]EnvName, error) {
	var names []EnvName
	seen := make(map[EnvName]bool)

	for _, line := range splitValueLines(value) {
		items, err := splitOutsideBraces(line)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			expanded, err := expandBraces(item)
			if err != nil {
				return nil, err
			}
			for _, e := range expanded {
				n := EnvName(e)
				if seen[n] {
					continue
				}
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names, nil
}

// splitOutsideBraces splits on commas that are not inside a {...} group.
func splitOutsideBraces(s string) ([]string, error) {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w in %q", errUnbalancedBraces, s)
			}
		case ',':
			if depth == 0 {
				if item := strings.TrimSpace(s[start:i]); item != "" {
					out = append(out, item)
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w in %q", errUnbalancedBraces, s)
	}
	if item := strings.TrimSpace(s[start:]); item != "" {
		out = append(out, item)
	}
	return out, nil
}

// expandBraces expands the first brace group of s and recurses on the results.
func expandBraces(s string) ([]string, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		if strings.IndexByte(s, '}') >= 0 {
			return nil, fmt.Errorf("%w in %q", errUnbalancedBraces, s)
		}
		return []string{s}, nil
	}
	closing := strings.IndexByte(s[open:], '}')
	if closing < 0 {
		return nil, fmt.Errorf("%w in %q", errUnbalancedBraces, s)
	}
	closing += open

	prefix, body, suffix := s[:open], s[open+1:closing], s[closing+1:]
	var out []string
	for _, alt := range strings.Split(body, ",") {
		rest, err := expandBraces(prefix + strings.TrimSpace(alt) + suffix)
		if err != nil {
			return nil, err
		}
		out = append(out, rest...)
	}
	return out, nil
}
