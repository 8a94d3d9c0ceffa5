package service

import (
	"fmt"
	"time"
)

// QuotaExceededError is returned when a requester has used up their daily
// generation allowance. It is never retried.
type QuotaExceededError struct {
	Message string
	RetryAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return e.Message
}

// InferenceError wraps transport-class failures from the inference provider
// (network errors, timeouts, non-JSON responses). The queued path treats
// these as transient and retries them.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s failed: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// InvalidOutputError means the model responded but the payload failed
// structural validation. Identical input would likely reproduce it, so it
// is terminal for the attempt and never retried.
type InvalidOutputError struct {
	Reason string
}

func (e *InvalidOutputError) Error() string {
	return "invalid model output: " + e.Reason
}
