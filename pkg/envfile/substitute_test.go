// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"os"
	"slices"
	"testing"

	"mvdan.cc/sh/v3/shell"
)

func testVars(posargs ...string) SubstitutionVars {
	env := map[string]string{"HOME": "/home/dev", "EMPTY": ""}
	return SubstitutionVars{
		PosArgs:    posargs,
		ToxIniDir:  "/src/project",
		ToxWorkDir: "/src/project/.envrun",
		EnvName:    "test",
		EnvDir:     "/src/project/.envrun/test",
		EnvTmpDir:  "/src/project/.envrun/test/tmp",
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		vars  SubstitutionVars
		want  string
	}{
		{name: "no substitutions", input: "poetry install", vars: testVars(), want: "poetry install"},
		{name: "posargs empty", input: "pytest {posargs}", vars: testVars(), want: "pytest "},
		{name: "posargs default", input: "pytest {posargs:tests/unit}", vars: testVars(), want: "pytest tests/unit"},
		{name: "posargs given", input: "pytest {posargs:tests/unit}", vars: testVars("-k", "smoke"), want: "pytest -k smoke"},
		{name: "nested default", input: "pytest {posargs:{toxinidir}/tests}", vars: testVars(), want: "pytest /src/project/tests"},
		{name: "dirs", input: "{toxinidir} {toxworkdir} {envdir} {envtmpdir}", vars: testVars(),
			want: "/src/project /src/project/.envrun /src/project/.envrun/test /src/project/.envrun/test/tmp"},
		{name: "envname", input: "echo {envname}", vars: testVars(), want: "echo test"},
		{name: "env set", input: "{env:HOME}", vars: testVars(), want: "/home/dev"},
		{name: "env set but empty ignores default", input: "x{env:EMPTY:fallback}x", vars: testVars(), want: "xx"},
		{name: "env default", input: "{env:MISSING:fallback}", vars: testVars(), want: "fallback"},
		{name: "env missing without default", input: "[{env:MISSING}]", vars: testVars(), want: "[]"},
		{name: "escaped braces", input: `echo \{posargs\}`, vars: testVars(), want: "echo {posargs}"},
		{name: "path separator", input: "a{/}b", vars: testVars(), want: "a" + string(os.PathSeparator) + "b"},
		{name: "list separator", input: "a{:}b", vars: testVars(), want: "a" + string(os.PathListSeparator) + "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Expand(tt.input, tt.vars)
			if err != nil {
				t.Fatalf("Expand(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"{unknown}", "{posargs", "{env}", "{env:}"} {
		if _, err := Expand(input, testVars()); !errors.Is(err, ErrSubstitution) {
			t.Errorf("Expand(%q) should fail with ErrSubstitution, got %v", input, err)
		}
	}
}

func TestExpandCommand_PosArgsSurviveWordSplitting(t *testing.T) {
	t.Parallel()

	args := []string{"tests/it's here", "-k", "a and b", "$HOME"}
	line, err := ExpandCommand(Command{Line: "pytest {posargs}"}, testVars(args...))
	if err != nil {
		t.Fatal(err)
	}

	words, err := shell.Fields(line, func(string) string { return "EXPANDED" })
	if err != nil {
		t.Fatalf("shell.Fields(%q) error: %v", line, err)
	}
	want := append([]string{"pytest"}, args...)
	if !slices.Equal(words, want) {
		t.Errorf("words = %q, want %q", words, want)
	}
}
