// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"envrun-cli/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.DefaultRuntime != RuntimeNative {
		t.Errorf("DefaultRuntime = %q, want native", cfg.DefaultRuntime)
	}
	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("ContainerEngine = %q, want docker", cfg.ContainerEngine)
	}
	if cfg.FailFast || cfg.UI.Verbose {
		t.Error("FailFast and Verbose should default to false")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("default config should be valid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestConfigDir_Override(t *testing.T) {
	override := t.TempDir()
	t.Setenv(ConfigDirEnvVar, override)

	dir, err := ConfigDir()
	if err != nil || dir != override {
		t.Errorf("ConfigDir() = %q, %v; want %q", dir, err, override)
	}
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, source, err := LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want empty", source)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
default_runtime: "virtual"
fail_fast: true
ui: {
	verbose: true
}
`)

	cfg, source, err := LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want %q", source, path)
	}
	if cfg.DefaultRuntime != RuntimeVirtual || !cfg.FailFast || !cfg.UI.Verbose {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ContainerEngine != ContainerEngineDocker || cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("unset keys should keep defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `container_engine: "docker"`)
	t.Setenv("ENVRUN_CONTAINER_ENGINE", "podman")
	t.Setenv("ENVRUN_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("ContainerEngine = %q, want podman from the environment", cfg.ContainerEngine)
	}
	if !cfg.UI.Verbose {
		t.Error("ENVRUN_UI_VERBOSE should enable verbose output")
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("ENVRUN_DEFAULT_RUNTIME", "container")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfigRuntimeMode) {
		t.Fatalf("expected ErrInvalidConfigRuntimeMode, got %v", err)
	}
	if iss, ok := issue.IssueOf(err); !ok || iss.Id() != issue.ConfigLoadFailedId {
		t.Errorf("error should link the config issue, got %v", iss)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bad runtime", content: `default_runtime: "container"`, want: "default_runtime"},
		{name: "wrong type", content: "ui: {\n\tverbose: \"yes\"\n}", want: "ui.verbose"},
		{name: "unknown key", content: `shell: "/bin/bash"`, want: "shell"},
		{name: "env file with directory", content: `env_file: "sub/tox.ini"`, want: "env_file"},
		{name: "syntax error", content: `default_runtime: `, want: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be actionable, got %T: %v", err, err)
			}
			if ae.Resource != path || !ae.HasSuggestions() {
				t.Errorf("unexpected actionable error: %+v", ae)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_CustomPathNotFound(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "load configuration" {
		t.Fatalf("expected actionable load error, got %v", err)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := &Config{
		DefaultRuntime:  RuntimeVirtual,
		ContainerEngine: ContainerEnginePodman,
		FailFast:        true,
		EnvFile:         "tox-ci.ini",
		UI:              UIConfig{ColorScheme: ColorSchemeDark, Verbose: true},
	}
	if err := Save(dir, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *got != *want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested")
	path, created, err := CreateDefaultConfig(dir)
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %q, %v, %v", path, created, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `default_runtime: "native"`) {
		t.Errorf("unexpected content:\n%s", data)
	}

	if _, created, err := CreateDefaultConfig(dir); err != nil || created {
		t.Errorf("second call should keep the existing file: created=%v err=%v", created, err)
	}
}

func TestGenerateCUE_ValidAgainstSchema(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), GenerateCUE(DefaultConfig()))
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config should load: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"ui", "verbose"}, "ui.verbose"},
		{[]string{"list", "0", "name"}, "list[0].name"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
