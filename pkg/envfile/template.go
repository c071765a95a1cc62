// SPDX-License-Identifier: MPL-2.0

package envfile

import _ "embed"

// StarterINI is the tox.ini written by "envrun init": a lint, a test and an
// integration environment driven by poetry, the last one also needing docker.
//
//go:embed templates/tox.ini
var StarterINI []byte
