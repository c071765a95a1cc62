// SPDX-License-Identifier: MPL-2.0

package envfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func mustParseFile(t *testing.T, name string) *File {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	f, err := Parse(path, data)
	if err != nil {
		t.Fatalf("Parse(%s) error: %v", path, err)
	}
	return f
}

func lines(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

func TestParseINI_StarterTemplate(t *testing.T) {
	t.Parallel()

	f, err := ParseINI("tox.ini", StarterINI)
	if err != nil {
		t.Fatalf("ParseINI() error: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	if !f.Settings.SkipSdist {
		t.Error("skipsdist should be true")
	}
	if got, want := f.Settings.EnvList, []EnvName{"lint", "test"}; !slices.Equal(got, want) {
		t.Errorf("envlist = %v, want %v", got, want)
	}
	if got, want := f.Names(), []EnvName{"lint", "test", "integration"}; !slices.Equal(got, want) {
		t.Fatalf("environments = %v, want %v", got, want)
	}

	tests := []struct {
		env       EnvName
		externals []ExternalPattern
		commands  []string
	}{
		{
			env:       "lint",
			externals: []ExternalPattern{"poetry"},
			commands:  []string{"poetry install", "poetry run pre-commit run --all-files"},
		},
		{
			env:       "test",
			externals: []ExternalPattern{"poetry"},
			commands:  []string{"poetry install", "poetry run pytest --doctest-modules --cov=app {posargs:tests/unit}"},
		},
		{
			env:       "integration",
			externals: []ExternalPattern{"docker", "poetry"},
			commands:  []string{"poetry install", "poetry run pytest tests/integration"},
		},
	}

	for _, tt := range tests {
		env, ok := f.Lookup(tt.env)
		if !ok {
			t.Fatalf("environment %q not found", tt.env)
		}
		if !slices.Equal(env.Externals, tt.externals) {
			t.Errorf("%s externals = %v, want %v", tt.env, env.Externals, tt.externals)
		}
		if got := lines(env.Commands); !slices.Equal(got, tt.commands) {
			t.Errorf("%s commands = %q, want %q", tt.env, got, tt.commands)
		}
		if env.Description == "" {
			t.Errorf("%s should carry a description", tt.env)
		}
	}
}

func TestParseINI_BaseSectionInheritance(t *testing.T) {
	t.Parallel()

	f := mustParseFile(t, "inherit.ini")

	if got, want := f.Settings.EnvList, []EnvName{"py311-unit", "py312-unit", "lint"}; !slices.Equal(got, want) {
		t.Errorf("envlist = %v, want %v", got, want)
	}
	if got, want := f.Names(), []EnvName{"lint", "py311-unit", "py312-unit"}; !slices.Equal(got, want) {
		t.Fatalf("environments = %v, want %v", got, want)
	}

	unit, _ := f.Lookup("py312-unit")
	if got, want := lines(unit.Commands), []string{"go test ./... -run {posargs:.}"}; !slices.Equal(got, want) {
		t.Errorf("continuation lines not joined: got %q, want %q", got, want)
	}
	if unit.SetEnv["GOFLAGS"] != "-mod=mod" || unit.SetEnv["CGO_ENABLED"] != "0" {
		t.Errorf("setenv not inherited: %v", unit.SetEnv)
	}
	if got, want := unit.SetEnvFiles, []string{"{toxinidir}/.env"}; !slices.Equal(got, want) {
		t.Errorf("setenv files = %v, want %v", got, want)
	}
	if got, want := unit.PassEnv, []string{"HOME", "PATH"}; !slices.Equal(got, want) {
		t.Errorf("passenv = %v, want %v", got, want)
	}

	lint, _ := f.Lookup("lint")
	if got, want := lint.Externals, []ExternalPattern{"golangci-lint", "go"}; !slices.Equal(got, want) {
		t.Errorf("both allowlist spellings should merge: got %v, want %v", got, want)
	}
	if len(lint.CommandsPre) != 1 || !lint.CommandsPre[0].IgnoreExit || lint.CommandsPre[0].Line != "go mod tidy" {
		t.Errorf("commands_pre = %+v, want one ignored 'go mod tidy'", lint.CommandsPre)
	}
	if got, want := lines(lint.Commands), []string{"golangci-lint run"}; !slices.Equal(got, want) {
		t.Errorf("lint commands = %q, want %q", got, want)
	}
	if got, want := lint.Depends, []EnvName{"py311-unit"}; !slices.Equal(got, want) {
		t.Errorf("depends = %v, want %v", got, want)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestParseINI_BlankLinesInsideValues(t *testing.T) {
	t.Parallel()

	input := "[tox]\nenvlist =\n    lint\n\n    test\n\n" +
		"[testenv:lint]\ncommands =\n    poetry install\n\n    poetry run pre-commit run --all-files\n\n" +
		"[testenv:test]\nallowlist_externals =\n    poetry\n  \t\n\n    docker\n" +
		"commands =\n    poetry install\n\n\n    -poetry run pytest\n\ndescription = unit tests\n"

	f, err := ParseINI("tox.ini", []byte(input))
	if err != nil {
		t.Fatalf("ParseINI() error: %v", err)
	}

	if got, want := f.Settings.EnvList, []EnvName{"lint", "test"}; !slices.Equal(got, want) {
		t.Errorf("envlist = %v, want %v", got, want)
	}
	lint, _ := f.Lookup("lint")
	if got, want := lines(lint.Commands), []string{"poetry install", "poetry run pre-commit run --all-files"}; !slices.Equal(got, want) {
		t.Errorf("lint commands = %q, want %q", got, want)
	}
	test, _ := f.Lookup("test")
	if got, want := lines(test.Commands), []string{"poetry install", "- poetry run pytest"}; !slices.Equal(got, want) {
		t.Errorf("test commands = %q, want %q", got, want)
	}
	if got, want := test.Externals, []ExternalPattern{"poetry", "docker"}; !slices.Equal(got, want) {
		t.Errorf("test externals = %v, want %v", got, want)
	}
	if test.Description != "unit tests" {
		t.Errorf("a key after a blank line should still be a key, description = %q", test.Description)
	}

	reparsed, err := ParseINI("tox.ini", EncodeINI(f))
	if err != nil {
		t.Fatalf("ParseINI(EncodeINI()) error: %v", err)
	}
	assertSameEnvironments(t, f, reparsed)
}

func TestParseINI_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		section string
		key     string
	}{
		{
			name:    "bad boolean",
			input:   "[testenv:a]\nignore_errors = maybe\ncommands = true\n",
			section: "testenv:a",
			key:     "ignore_errors",
		},
		{
			name:    "bad setenv line",
			input:   "[testenv:a]\nsetenv =\n    NOVALUE\ncommands = true\n",
			section: "testenv:a",
			key:     "setenv",
		},
		{
			name:    "unknown runtime",
			input:   "[testenv:a]\nruntime = container\ncommands = true\n",
			section: "testenv:a",
			key:     "runtime",
		},
		{
			name:    "unbalanced envlist",
			input:   "[tox]\nenvlist = py{311,312\n",
			section: "tox",
			key:     "envlist",
		},
		{
			name:    "empty ignored command",
			input:   "[testenv:a]\ncommands =\n    -\n",
			section: "testenv:a",
			key:     "commands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseINI("tox.ini", []byte(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error should match ErrParse: %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if pe.Section != tt.section || pe.Key != tt.key {
				t.Errorf("location = [%s] %s, want [%s] %s", pe.Section, pe.Key, tt.section, tt.key)
			}
		})
	}
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	f := mustParseFile(t, "envrun.toml")
	if f.Format != FormatTOML {
		t.Errorf("format = %q, want %q", f.Format, FormatTOML)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	lint, _ := f.Lookup("lint")
	if got, want := lint.Externals, []ExternalPattern{"poetry"}; !slices.Equal(got, want) {
		t.Errorf("lint should inherit base externals: got %v", got)
	}

	test, _ := f.Lookup("test")
	if len(test.Commands) != 2 || !test.Commands[1].IgnoreExit {
		t.Errorf("second test command should ignore its exit status: %+v", test.Commands)
	}
	if test.SetEnv["PYTHONHASHSEED"] != "0" {
		t.Errorf("setenv = %v", test.SetEnv)
	}

	integration, _ := f.Lookup("integration")
	if integration.Runtime != RuntimeVirtual {
		t.Errorf("runtime = %q, want virtual", integration.Runtime)
	}
	if got, want := integration.Externals, []ExternalPattern{"docker", "poetry"}; !slices.Equal(got, want) {
		t.Errorf("integration externals = %v, want %v", got, want)
	}
}

func TestParseTOML_KeepsDeclarationOrder(t *testing.T) {
	t.Parallel()

	data := []byte(`[base]
externals = ["poetry"]

[[env]]
name = "zeta"
commands = ["poetry run zeta"]

[[env]]
name = "alpha"
commands = ["poetry run alpha"]

[[env]]
name = "mid"
externals = ["docker"]
commands = ["poetry run mid"]
`)

	f, err := ParseTOML("envrun.toml", data)
	if err != nil {
		t.Fatalf("ParseTOML() error: %v", err)
	}
	if got, want := f.Names(), []EnvName{"zeta", "alpha", "mid"}; !slices.Equal(got, want) {
		t.Errorf("environments = %v, want declaration order %v", got, want)
	}
	zeta, _ := f.Lookup("zeta")
	if got, want := zeta.Externals, []ExternalPattern{"poetry"}; !slices.Equal(got, want) {
		t.Errorf("[base] should be inherited: externals = %v", got)
	}

	encoded, err := EncodeTOML(f)
	if err != nil {
		t.Fatal(err)
	}
	reparsed, err := ParseTOML("envrun.toml", encoded)
	if err != nil {
		t.Fatalf("ParseTOML(EncodeTOML()) error: %v\n%s", err, encoded)
	}
	assertSameEnvironments(t, f, reparsed)
}

func TestParseTOML_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := ParseTOML("envrun.toml", []byte("[[env]]\nname = \"a\"\ncommandz = [\"x\"]\n"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("unknown keys should be rejected, got %v", err)
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Find(nested); !errors.Is(err, ErrEnvFileNotFound) {
		// A tox.ini higher up the real filesystem would be found; only assert when absent.
		if err == nil {
			t.Skip("an environment file exists above the temp directory")
		}
		t.Fatalf("expected ErrEnvFileNotFound, got %v", err)
	}

	tomlPath := filepath.Join(root, TOMLFileName)
	if err := os.WriteFile(tomlPath, []byte("[[env]]\nname = \"a\"\ncommands = [\"true\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Find(nested)
	if err != nil || got != tomlPath {
		t.Fatalf("Find() = %q, %v; want %q", got, err, tomlPath)
	}

	iniPath := filepath.Join(root, ToxFileName)
	if err := os.WriteFile(iniPath, StarterINI, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = Find(nested)
	if err != nil || got != iniPath {
		t.Fatalf("tox.ini should win over envrun.toml: got %q, %v", got, err)
	}
}

func TestLoad_ValidatesAndLimitsSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	invalid := filepath.Join(dir, "tox.ini")
	if err := os.WriteFile(invalid, []byte("[tox]\nenvlist = missing\n\n[testenv:a]\ncommands = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(invalid); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("Load() should validate, got %v", err)
	}

	big := filepath.Join(dir, "big.ini")
	if err := os.WriteFile(big, make([]byte, DefaultMaxFileSize+1), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Load() should reject oversized files, got %v", err)
	}
}
