// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the envrun command-line interface: run, list, show,
// check, init and config. Handlers load the user configuration, locate the
// environment file and delegate to internal/runner.
package cmd
