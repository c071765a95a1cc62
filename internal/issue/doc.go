// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries what was attempted, on which resource, and how to fix
// it. The catalog in issue.go holds longer Markdown guidance, rendered with
// glamour, for the failures users hit most often.
package issue
