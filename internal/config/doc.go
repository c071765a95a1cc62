// SPDX-License-Identifier: MPL-2.0

// Package config handles envrun's user configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/envrun/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/envrun/config.cue on macOS, %APPDATA%\envrun\config.cue
// on Windows), falling back to ./config.cue. ENVRUN_CONFIG_DIR replaces the
// directory lookup. Every key can be overridden by an
// ENVRUN_* environment variable, with dots replaced by underscores.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before
// being merged over the defaults.
package config
