// Package pipeline orchestrates the per-email processing state machine:
// parse, classify, extract, map, reply. Stage failures degrade the run
// instead of aborting it; only fatal input ends a run early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrFatalInput marks input so malformed the run cannot proceed.
	ErrFatalInput = errors.New("fatal input error")

	// ErrAlreadyRunning rejects a submission for an email id whose run
	// is still in flight.
	ErrAlreadyRunning = errors.New("pipeline run already in flight for email")
)

type transientError struct {
	err error
}

func (e *transientError) Error() string { return fmt.Sprintf("transient: %v", e.err) }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps an error as retryable: timeouts, rate limits, transport
// faults.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return fmt.Sprintf("permanent: %v", e.err) }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error as non-retryable; the owning stage degrades
// instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsTransient reports whether an error warrants a retry. Capability
// timeouts count as transient; explicit permanent wrapping wins.
func IsTransient(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return false
	}
	var t *transientError
	if errors.As(err, &t) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
