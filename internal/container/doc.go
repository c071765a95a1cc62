// SPDX-License-Identifier: MPL-2.0

// Package container probes the container engines (Docker, Podman) that
// environment commands may drive. Envrun never runs containers itself; it
// only checks, before any command starts, that an allowlisted engine CLI is
// installed and that its daemon answers.
package container
