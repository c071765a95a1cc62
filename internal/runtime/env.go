// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"os"
	"path"
	goruntime "runtime"
	"strings"
)

// Identification variables exported to every command.
const (
	EnvVarEnvName    = "ENVRUN_ENV_NAME"
	EnvVarEnvDir     = "ENVRUN_ENV_DIR"
	EnvVarToxEnvName = "TOX_ENV_NAME"
	EnvVarToxEnvDir  = "TOX_ENV_DIR"
)

// DefaultPassEnv lists host variables every environment inherits in addition
// to its own passenv patterns. Entries may be glob patterns.
var DefaultPassEnv = []string{
	"PATH", "HOME", "USER", "LANG", "LANGUAGE", "LC_*", "TERM", "TZ",
	"TMPDIR", "TEMP", "TMP",
	"SYSTEMROOT", "SYSTEMDRIVE", "COMSPEC", "PATHEXT", "USERPROFILE", "APPDATA", "PROGRAMDATA",
	"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy",
	"SSL_CERT_FILE", "SSL_CERT_DIR", "REQUESTS_CA_BUNDLE",
	"DOCKER_HOST", "DOCKER_CONFIG", "XDG_RUNTIME_DIR", "CONTAINER_HOST",
	"PIP_*", "VIRTUALENV_*", "POETRY_*",
}

// passEnvMatcher decides which host variables are inherited.
type passEnvMatcher struct {
	patterns []string
	all      bool
}

func newPassEnvMatcher(extra []string) passEnvMatcher {
	m := passEnvMatcher{patterns: append(append([]string{}, DefaultPassEnv...), extra...)}
	for _, p := range extra {
		if p == "*" {
			m.all = true
		}
	}
	return m
}

func (m passEnvMatcher) match(name string) bool {
	if m.all {
		return true
	}
	// Windows variable names are case-insensitive.
	if goruntime.GOOS == "windows" {
		name = strings.ToUpper(name)
	}
	for _, p := range m.patterns {
		if goruntime.GOOS == "windows" {
			p = strings.ToUpper(p)
		}
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// filterHostEnv returns the host variables allowed by passenv.
func filterHostEnv(environ []string, passEnv []string) map[string]string {
	m := newPassEnvMatcher(passEnv)
	env := make(map[string]string)
	for _, entry := range FilterEnvrunEnvVars(environ) {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		if m.match(name) {
			env[name] = value
		}
	}
	return env
}

// validateWorkDir validates that a working directory exists and is accessible.
// This provides a better error message than letting exec fail with a cryptic error.
func validateWorkDir(dir string) error {
	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied: %s", dir)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	return nil
}
