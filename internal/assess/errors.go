package assess

import "errors"

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrTestNotPublished = errors.New("test not published")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// ErrAttemptsExhausted: the student already holds maxAttempts
	// non-abandoned attempts for the test.
	ErrAttemptsExhausted = errors.New("attempts exhausted")

	// ErrAttemptAlreadySubmitted: submit against a terminal attempt.
	// The stored score is never altered.
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")

	// ErrPersistence wraps store failures during scoring so callers can
	// keep their snapshot and retry instead of silently losing answers.
	ErrPersistence = errors.New("persistence failure")
)
