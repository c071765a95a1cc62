// SPDX-License-Identifier: MPL-2.0

// Package runtime executes environment commands.
//
// Two runtime implementations are available:
//   - native: splits the command line into words and runs the program directly, without a shell
//   - virtual: interprets the command line with an embedded POSIX shell (mvdan/sh)
//
// Both implement the Runtime interface with Name(), Execute(), Available(), and Validate().
// Runtimes supporting output capture implement CapturingRuntime.
//
// The environment a command sees is assembled by an EnvBuilder: the passenv-filtered host
// environment, then setenv dotenv files, then setenv assignments, then the ENVRUN_* and TOX_*
// identification variables. See env_builder.go for the full order.
package runtime
