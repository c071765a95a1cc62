// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEnvFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "simple key value",
			content:  "FOO=bar",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "multiple key values",
			content:  "FOO=bar\nBAZ=qux",
			expected: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:     "value with equals sign",
			content:  "URL=https://example.com?foo=bar",
			expected: map[string]string{"URL": "https://example.com?foo=bar"},
		},
		{
			name:     "comments and blank lines",
			content:  "# leading comment\n\nFOO=bar\n",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "export prefix",
			content:  "export FOO=bar",
			expected: map[string]string{"FOO": "bar"},
		},
		{
			name:     "quoted values",
			content:  "SINGLE='a b'\nDOUBLE=\"c d\"",
			expected: map[string]string{"SINGLE": "a b", "DOUBLE": "c d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := make(map[string]string)
			if err := ParseEnvFile(env, []byte(tt.content), "test.env"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for k, v := range tt.expected {
				if env[k] != v {
					t.Errorf("expected %s=%q, got %s=%q", k, v, k, env[k])
				}
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FOO=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := map[string]string{"FOO": "original", "KEEP": "yes"}
	if err := LoadEnvFile(env, ".env", dir); err != nil {
		t.Fatalf("LoadEnvFile() error: %v", err)
	}
	if env["FOO"] != "from-file" || env["KEEP"] != "yes" {
		t.Errorf("env = %v", env)
	}

	if err := LoadEnvFile(env, "missing.env?", dir); err != nil {
		t.Errorf("optional missing file should be ignored, got %v", err)
	}
	if err := LoadEnvFile(env, "missing.env", dir); err == nil {
		t.Error("required missing file should fail")
	}
}
