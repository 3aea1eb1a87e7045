package pacer

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAttemptsExhausted is returned when the requested attempt exceeds the
	// configured attempt cap. Callers should stop retrying when they see it.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")

	// ErrCurveGap is returned when an in-range attempt resolves to an empty
	// curve slot. It indicates an internal consistency failure and is not
	// recoverable.
	ErrCurveGap = errors.New("backoff curve has no value for attempt")

	// ErrUnknownDefinition is returned when a namespace/action pair has no
	// registered limiter definition.
	ErrUnknownDefinition = errors.New("no limiter definition registered")

	// ErrWaitCanceled is returned when a context is canceled while a caller
	// is waiting for window room.
	ErrWaitCanceled = errors.New("throttle wait canceled")
)
