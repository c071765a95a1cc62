// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"slices"
	"strings"
	"testing"

	"envrun-cli/pkg/envfile"
)

type stubRuntime struct {
	name      string
	available bool
	calls     int
}

func (s *stubRuntime) Name() string                      { return s.name }
func (s *stubRuntime) Available() bool                   { return s.available }
func (s *stubRuntime) Validate(*ExecutionContext) error  { return nil }
func (s *stubRuntime) Execute(*ExecutionContext) *Result { s.calls++; return NewExitCodeResult(7) }

func TestRegistryForMode(t *testing.T) {
	t.Parallel()

	reg, err := BuildRegistry(envfile.RuntimeDefault)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		mode envfile.RuntimeMode
		want string
	}{
		{envfile.RuntimeDefault, "native"},
		{envfile.RuntimeNative, "native"},
		{envfile.RuntimeVirtual, "virtual"},
	}
	for _, tt := range tests {
		rt, err := reg.ForMode(tt.mode)
		if err != nil {
			t.Fatalf("ForMode(%q) error: %v", tt.mode, err)
		}
		if rt.Name() != tt.want {
			t.Errorf("ForMode(%q) = %s, want %s", tt.mode, rt.Name(), tt.want)
		}
	}

	virtualDefault, err := BuildRegistry(envfile.RuntimeVirtual)
	if err != nil {
		t.Fatal(err)
	}
	if rt, _ := virtualDefault.ForMode(envfile.RuntimeDefault); rt.Name() != "virtual" {
		t.Errorf("configured default not honoured: got %s", rt.Name())
	}

	if _, err := BuildRegistry("container"); err == nil {
		t.Error("unknown default runtime should be rejected")
	}
}

func TestRegistryExecute(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	up := &stubRuntime{name: "native", available: true}
	reg.Register(RuntimeTypeNative, up)
	reg.Register(RuntimeTypeVirtual, &stubRuntime{name: "virtual"})

	if got := reg.Available(); !slices.Equal(got, []RuntimeType{RuntimeTypeNative}) {
		t.Errorf("Available() = %v", got)
	}

	ctx := NewExecutionContext(context.Background(), "true")
	if res := reg.Execute(envfile.RuntimeDefault, ctx); res.ExitCode != 7 || up.calls != 1 {
		t.Errorf("Execute() = %+v, calls = %d", res, up.calls)
	}

	res := reg.Execute(envfile.RuntimeVirtual, ctx)
	if res.Error == nil || !strings.Contains(res.Error.Error(), "not available") {
		t.Errorf("unavailable runtime should fail, got %+v", res)
	}
}

func TestEnvToSliceIsSorted(t *testing.T) {
	t.Parallel()

	got := EnvToSlice(map[string]string{"B": "2", "A": "1", "C": "x=y"})
	want := []string{"A=1", "B=2", "C=x=y"}
	if !slices.Equal(got, want) {
		t.Errorf("EnvToSlice() = %v, want %v", got, want)
	}
}

func TestFilterEnvrunEnvVars(t *testing.T) {
	t.Parallel()

	in := []string{"PATH=/bin", EnvVarEnvName + "=outer", EnvVarToxEnvDir + "=/x", "ENVRUN_OTHER=1", "MALFORMED"}
	got := FilterEnvrunEnvVars(in)
	want := []string{"PATH=/bin", "ENVRUN_OTHER=1", "MALFORMED"}
	if !slices.Equal(got, want) {
		t.Errorf("FilterEnvrunEnvVars() = %v, want %v", got, want)
	}
	if len(in) != 5 {
		t.Error("input slice must not be modified")
	}
}
