// ABOUTME: Domain-level sentinel errors for the summarization job service
// ABOUTME: These errors are used with errors.Is() for error type checking
package domain

import (
	"context"
	"errors"
)

// Job-related errors
var (
	// ErrJobNotFound indicates the requested summary job does not exist
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition indicates the job is not in a state that permits the requested update
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// User-related errors
var (
	// ErrUserNotFound indicates the requested user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInsufficientCredits indicates the user has no credits left to submit a job
	ErrInsufficientCredits = errors.New("not enough credits to create a summary")

	// ErrForbidden indicates the caller does not own the requested resource
	ErrForbidden = errors.New("not enough permissions")
)

// Validation errors
var (
	// ErrValidation wraps every synchronous input rejection (bad model, token ceiling, empty text)
	ErrValidation = errors.New("validation failed")

	// ErrInputTooLong indicates the input exceeds the model's token ceiling
	ErrInputTooLong = errors.New("input exceeds model token limit")

	// ErrEmptyInput indicates no summarizable text remains after sanitizing
	ErrEmptyInput = errors.New("input text cannot be empty")
)

// External service errors
var (
	// ErrModelLoading indicates the remote model is cold and still loading
	ErrModelLoading = errors.New("summarization model is loading")

	// ErrServiceOverloaded indicates the remote inference API returned 429
	ErrServiceOverloaded = errors.New("summarization service overloaded")

	// ErrArchiveDisabled indicates no archive bucket is configured
	ErrArchiveDisabled = errors.New("archive storage is not configured")

	// ErrQueueUnavailable indicates the work queue could not accept a message
	ErrQueueUnavailable = errors.New("work queue unavailable")
)

// IsInfrastructureFault reports whether err is a fault in the processor's own
// dependencies that is worth re-running the job for. Not-found, invalid
// transitions and cancellation are final.
func IsInfrastructureFault(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrJobNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrValidation),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
