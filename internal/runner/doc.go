// SPDX-License-Identifier: MPL-2.0

// Package runner executes the environments of an envfile.File.
//
// For each environment the runner substitutes {name} references, builds the
// process environment, and runs a preflight proving that every allowlisted
// external is installed (and that container engines answer) before the first
// command starts. Commands then run in three phases: commands_pre, commands
// and commands_post. Run orders several environments by their depends
// settings and aggregates the outcome into a Report.
package runner
