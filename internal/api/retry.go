package api

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
)

// retry repeats op with exponential backoff while it fails with a retryable
// *Error. Only idempotent reads go through here.
func (c *Client) retry(ctx context.Context, op func() ([]byte, error)) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = 8 * c.retryDelay

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		raw, err := op()
		if err == nil {
			return raw, nil
		}
		var ae *Error
		if ctx.Err() != nil || !errors.As(err, &ae) || !ae.Retryable() {
			return nil, backoff.Permanent(err)
		}
		c.log.Debug("retrying read", "path", ae.Path, "attempt", attempt, "err", err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxAttempts))
}
