// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"time"
)

// retryTransient runs op up to maxAttempts times, sleeping with exponential
// backoff between attempts. Only errors classified by IsTransientError are
// retried; the last error is returned once attempts are exhausted.
func retryTransient(ctx context.Context, maxAttempts int, baseBackoff time.Duration, op func() error) error {
	var err error
	for attempt := range maxAttempts {
		if attempt > 0 {
			timer := time.NewTimer(baseBackoff << (attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-timer.C:
			}
		}

		if err = op(); err == nil || !IsTransientError(err) {
			return err
		}
	}
	return err
}
