package ynab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrPoolExhausted is returned when every credential in the pool is
// disabled or cooling down and the pool is configured to fail fast.
var ErrPoolExhausted = errors.New("credential pool exhausted")

// ErrOutcomeUnknown marks a mutating request that was aborted in flight.
// The write may or may not have landed; callers must not blindly retry.
var ErrOutcomeUnknown = errors.New("write outcome unknown")

// APIError represents an error response from the YNAB API.
type APIError struct {
	StatusCode int
	Name       string
	Detail     string
	RetryAfter time.Duration // from the Retry-After header, 0 if absent
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ynab API error (status %d): %s - %s", e.StatusCode, e.Name, e.Detail)
	}
	return fmt.Sprintf("ynab API error (status %d): %s", e.StatusCode, e.Name)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return Classify(err) == OutcomeNotFound
}

// Outcome classifies the result of a single remote call. It drives both
// the retry loop and the credential health transition.
type Outcome int

const (
	// OutcomeSuccess: the call succeeded.
	OutcomeSuccess Outcome = iota
	// OutcomeRetryable: network error or 5xx; safe to retry reads.
	OutcomeRetryable
	// OutcomeRateLimited: 429; the credential needs a cooldown.
	OutcomeRateLimited
	// OutcomeAuthFailure: 401; the credential is dead.
	OutcomeAuthFailure
	// OutcomeNotFound: 404; terminal for that id.
	OutcomeNotFound
	// OutcomePermanent: anything else; terminal.
	OutcomePermanent
)

// String returns the outcome name used in trace events.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeAuthFailure:
		return "auth_failure"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "permanent_failure"
	}
}

// Classify maps an error from a single remote call to an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return OutcomeAuthFailure
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return OutcomeRateLimited
		case apiErr.StatusCode == http.StatusNotFound:
			return OutcomeNotFound
		case apiErr.StatusCode >= 500:
			return OutcomeRetryable
		default:
			return OutcomePermanent
		}
	}

	// A canceled or timed-out context is the caller's decision, not a
	// transient server condition.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomePermanent
	}

	// Anything else from the transport is a network-level failure.
	return OutcomeRetryable
}

// retryAfterOf extracts the server-supplied cooldown hint, if any.
func retryAfterOf(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// statusOf extracts the HTTP status for trace events, 0 for transport
// failures.
func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
