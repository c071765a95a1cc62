// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers that fail the test on setup errors:
// directory and file creation (MustMkdirAll, MustWriteFile), fake /bin/sh
// programs standing in for externals (WriteFakeProgram), a step-advancing
// clock (FakeClock) and a semaphore bounding concurrent container tests.
package testutil
