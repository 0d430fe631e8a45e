package ynab

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// RetryConfig configures the read-retry loop. Mutating calls are never
// retried on retryable outcomes regardless of these settings: without an
// idempotency key a retried write against a remote ledger risks duplicate
// side effects.
type RetryConfig struct {
	// Retries is the number of retries after the first attempt. A read
	// failing with retryable outcomes is attempted exactly Retries+1
	// times. Default: 2.
	Retries int

	// BaseDelay is the delay before the first retry; doubled each retry.
	// Default: 500ms.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Default: 10s.
	MaxDelay time.Duration

	// Jitter is the maximum random variation as a fraction of the delay
	// (0..1). Default: 0.2.
	Jitter float64
}

// DefaultRetryConfig returns the retry tuning used when none is supplied.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:   2,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Jitter:    0.2,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = d.Jitter
	}
	return c
}

// execute runs one logical API operation against the pool. Each attempt
// draws a credential, reports the classified outcome back to the pool, and
// emits a trace event. Reads retry retryable outcomes with exponential
// backoff; an auth failure disables the credential and the next one is
// tried immediately (a 401 is rejected before any side effect, so this is
// safe for writes too).
func (c *Client) execute(ctx context.Context, name string, idempotent bool, fn func(ctx context.Context, token string) error) error {
	retriesUsed := 0

	for {
		cred, err := c.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		requestID := uuid.NewString()
		start := time.Now()
		c.logger.Debug("api request",
			"name", name,
			"phase", "start",
			"request_id", requestID,
			"credential", cred.index,
		)

		err = fn(ctx, cred.Token())
		duration := time.Since(start)
		outcome := Classify(err)
		c.pool.Report(cred, outcome, retryAfterOf(err))

		if err == nil {
			c.logger.Debug("api request",
				"name", name,
				"phase", "success",
				"request_id", requestID,
				"duration_ms", duration.Milliseconds(),
			)
			return nil
		}

		c.logger.Debug("api request",
			"name", name,
			"phase", "error",
			"request_id", requestID,
			"duration_ms", duration.Milliseconds(),
			"status", statusOf(err),
			"outcome", outcome.String(),
		)

		if !idempotent && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// The write was aborted in flight. It may have landed.
			return fmt.Errorf("%s: %w: %v", name, ErrOutcomeUnknown, err)
		}

		switch outcome {
		case OutcomeAuthFailure:
			// The credential is disabled; the next Acquire either finds
			// another one or fails with ErrPoolExhausted.
			continue
		case OutcomeRetryable, OutcomeRateLimited:
			if !idempotent {
				return fmt.Errorf("%s: %w", name, err)
			}
			if retriesUsed >= c.retry.Retries {
				return fmt.Errorf("%s: retries exhausted: %w", name, err)
			}
			retriesUsed++
			if err := c.sleep(ctx, c.backoff(retriesUsed)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		default:
			return fmt.Errorf("%s: %w", name, err)
		}
	}
}

// backoff returns the delay before the given retry (1-based):
// BaseDelay * 2^(retry-1), capped at MaxDelay, with +/-Jitter applied.
func (c *Client) backoff(retry int) time.Duration {
	delay := c.retry.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= c.retry.MaxDelay {
			break
		}
	}
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	if c.retry.Jitter > 0 {
		jitter := (rand.Float64()*2 - 1) * c.retry.Jitter
		delay = time.Duration(float64(delay) * (1 + jitter))
	}
	return delay
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
