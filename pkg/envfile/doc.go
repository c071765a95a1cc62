// SPDX-License-Identifier: MPL-2.0

// Package envfile parses and encodes environment files.
//
// An environment file declares named environments (lint, test, integration, ...),
// each an ordered list of commands plus the external executables those commands
// are allowed to invoke. Two formats are understood:
//
//   - tox.ini: the tox INI dialect ([tox], [testenv], [testenv:NAME] sections)
//   - envrun.toml: the same model expressed as TOML tables
//
// Parsing never reorders environments or commands; EncodeINI followed by ParseINI
// reproduces the same ordered command lists.
package envfile
