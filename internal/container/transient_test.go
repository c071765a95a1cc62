// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
)

func TestIsTransientError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "wrapped context deadline", err: fmt.Errorf("probe: %w", context.DeadlineExceeded), want: false},
		{name: "daemon down", err: errors.New("Cannot connect to the Docker daemon at unix:///var/run/docker.sock"), want: false},
		{name: "exit code 1", err: newExitError(t, 1), want: false},
		{name: "exit code 125", err: newExitError(t, 125), want: true},
		{name: "wrapped exit code 125", err: fmt.Errorf("probe: %w", newExitError(t, 125)), want: true},
		{name: "ping_group_range", err: errors.New("error reading /proc/sys/net/ipv4/ping_group_range"), want: true},
		{name: "timeout", err: errors.New("dial unix /run/podman.sock: i/o timeout"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// newExitError creates an *exec.ExitError with the given exit code by running
// the test helper process.
func newExitError(t *testing.T, code int) error {
	t.Helper()
	err := NewMockCommandRecorder(code).CommandFunc(t)(context.Background(), "engine").Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected an exit error for code %d, got %v", code, err)
	}
	return exitErr
}
