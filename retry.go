package siteserver

import (
	"context"
	"fmt"
	"time"
)

const (
	maxAttempts = 3
	backoffBase = time.Second
	backoffCap  = 8 * time.Second
)

// withRetry runs op up to maxAttempts times, waiting base<<attempt between
// tries. Only errors marked transient are retried; permanent failures and
// conflicts return immediately. When the budget is spent, the last transient
// error is wrapped in exhausted so callers can tell "gave up" apart from a
// hard failure and pick the right fallback.
func withRetry(ctx context.Context, exhausted error, sleep func(time.Duration), op func() error) error {
	var last error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", exhausted, err)
			}
			d := backoffBase << attempt
			if d > backoffCap {
				d = backoffCap
			}
			sleep(d)
		}
		err := op()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		last = err
	}
	return fmt.Errorf("%w: %w", exhausted, last)
}
