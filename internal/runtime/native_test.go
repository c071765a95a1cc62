// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
)

// writeFakeProgram creates an executable shell script in dir.
func writeFakeProgram(t *testing.T, dir, name, body string) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("fake programs are POSIX shell scripts")
	}
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
}

func fakeEnv(binDir string) map[string]string {
	return map[string]string{"PATH": binDir + string(os.PathListSeparator) + "/bin" + string(os.PathListSeparator) + "/usr/bin"}
}

func TestNativeRuntime_ExitCodes(t *testing.T) {
	t.Parallel()

	bin := t.TempDir()
	writeFakeProgram(t, bin, "succeed", "exit 0")
	writeFakeProgram(t, bin, "fail3", "exit 3")
	if err := os.WriteFile(filepath.Join(bin, "noexec"), []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		line    string
		want    ExitCode
		wantErr bool
	}{
		{name: "success", line: "succeed", want: 0},
		{name: "non-zero exit is a normal result", line: "fail3 --flag", want: 3},
		{name: "missing program", line: "definitely-not-installed-xyz", want: ExitNotFound, wantErr: true},
		{name: "not executable", line: "./noexec", want: ExitNotExecutable, wantErr: true},
	}

	rt := NewNativeRuntime()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := NewExecutionContext(context.Background(), tt.line)
			ctx.WorkDir = bin
			ctx.Env = fakeEnv(bin)

			res := rt.ExecuteCapture(ctx)
			if res.ExitCode != tt.want {
				t.Errorf("exit code = %d, want %d (err: %v)", res.ExitCode, tt.want, res.Error)
			}
			if (res.Error != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", res.Error, tt.wantErr)
			}
		})
	}
}

func TestNativeRuntime_ArgumentsAndEnvironment(t *testing.T) {
	t.Parallel()

	bin := t.TempDir()
	writeFakeProgram(t, bin, "show", `for a in "$@"; do echo "[$a]"; done; echo "GREETING=$GREETING"; pwd`)

	ctx := NewExecutionContext(context.Background(), `show 'two words' "$GREETING" plain`)
	ctx.WorkDir = bin
	ctx.Env = fakeEnv(bin)
	ctx.Env["GREETING"] = "hello"

	res := NewNativeRuntime().ExecuteCapture(ctx)
	if !res.Success() {
		t.Fatalf("unexpected failure: %+v", res)
	}

	want := []string{"[two words]", "[hello]", "[plain]", "GREETING=hello"}
	got := strings.Split(strings.TrimSpace(res.Output), "\n")
	if len(got) != len(want)+1 {
		t.Fatalf("output = %q", res.Output)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("line %d = %q, want %q", i, got[i], w)
		}
	}
	resolvedBin, _ := filepath.EvalSymlinks(bin)
	if wd, _ := filepath.EvalSymlinks(got[len(got)-1]); wd != resolvedBin {
		t.Errorf("working directory = %q, want %q", wd, resolvedBin)
	}
}

func TestNativeRuntime_NoShell(t *testing.T) {
	t.Parallel()

	bin := t.TempDir()
	writeFakeProgram(t, bin, "echoargs", `echo "$#"`)

	ctx := NewExecutionContext(context.Background(), "echoargs a | b")
	ctx.WorkDir = bin
	ctx.Env = fakeEnv(bin)

	rt := NewNativeRuntime()
	if err := rt.Validate(ctx); err == nil || !strings.Contains(err.Error(), "virtual") {
		t.Errorf("Validate() should reject shell operators and point at the virtual runtime, got %v", err)
	}
	res := rt.ExecuteCapture(ctx)
	if res.Success() || res.Output != "" {
		t.Errorf("a line with shell operators must not run natively: %+v", res)
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	words, err := Fields(`poetry run pytest "-k" 'a and b' $X`, map[string]string{"X": "tests"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"poetry", "run", "pytest", "-k", "a and b", "tests"}
	if strings.Join(words, "|") != strings.Join(want, "|") {
		t.Errorf("Fields() = %q, want %q", words, want)
	}

	if _, err := Fields("   ", nil); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("blank line should be ErrEmptyCommand, got %v", err)
	}
	if _, err := Fields(`echo "unterminated`, nil); err == nil {
		t.Error("unterminated quote should fail")
	}

	if p, err := ProgramOf("docker compose up", nil); err != nil || p != "docker" {
		t.Errorf("ProgramOf() = %q, %v", p, err)
	}
}

func TestResolveProgram_NotFound(t *testing.T) {
	t.Parallel()

	_, err := ResolveProgram("definitely-not-installed-xyz", t.TempDir(), map[string]string{"PATH": t.TempDir()})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected exec.ErrNotFound, got %v", err)
	}
	var nf *ProgramNotFoundError
	if !errors.As(err, &nf) || nf.Program != "definitely-not-installed-xyz" {
		t.Errorf("expected *ProgramNotFoundError, got %T", err)
	}
}
