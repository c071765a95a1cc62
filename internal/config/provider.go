// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where envrun's config.cue comes from.
type LoadOptions struct {
	// ConfigFilePath is the --config flag. When set, the file must exist.
	ConfigFilePath string
	// ConfigDirPath replaces ConfigDir() when looking for config.cue.
	ConfigDirPath string
}

// Provider yields the user configuration the CLI applies to a run: default
// runtime, preferred container engine, fail-fast, env file name and UI
// settings. The CLI takes a Provider so tests can substitute a stub.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

// cueProvider reads config.cue through viper, layering the file over
// DefaultConfig and ENVRUN_* variables over the file.
type cueProvider struct{}

// NewProvider returns the Provider backed by config.cue on disk.
func NewProvider() Provider { return cueProvider{} }

func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// LoadWithSource is Provider.Load for "envrun config show": it also returns
// the config.cue path that was read, or "" when defaults and environment
// overrides were all there was.
func LoadWithSource(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
