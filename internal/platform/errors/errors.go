// Package errors provides error types and utilities for rastro.
// It extends the standard errors package with wrapping helpers and the
// sentinel failures the engine distinguishes.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. None of them is fatal to a run: analyzer and enrichment
// failures are recorded into result envelopes and traversal continues.
var (
	// ErrInvalidInput indicates a malformed entity value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnalyzerFailure indicates a network or parse error inside one
	// analyzer.
	ErrAnalyzerFailure = errors.New("analyzer failure")

	// ErrEnrichmentFailure indicates a post-loop global enrichment failed.
	ErrEnrichmentFailure = errors.New("global enrichment failure")

	// ErrRateLimit indicates an upstream rate limit was exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrNotFound indicates a requested resource was not found upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates a missing or rejected API credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidResponse indicates an upstream response could not be parsed.
	ErrInvalidResponse = errors.New("invalid response")
)

// wrappedError wraps an error with additional context.
type wrappedError struct {
	msg   string
	cause error
}

func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with a context message. Returns nil for nil err.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: msg, cause: err}
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{msg: fmt.Sprintf(format, args...), cause: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats and returns a new error.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Join wraps the given errors, discarding nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
