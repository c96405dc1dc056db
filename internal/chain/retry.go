package chain

import (
	"context"
	"time"
)

// WaitReachable probes the endpoint until it answers, with exponential
// backoff between attempts. Used at startup only; the scan loop itself
// never retries.
func (c *Client) WaitReachable(ctx context.Context, maxRetries int, baseDelay time.Duration) error {
	return withRetry(ctx, maxRetries, baseDelay, func(ctx context.Context) error {
		_, err := c.ethClient.ChainID(ctx)
		return err
	})
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
