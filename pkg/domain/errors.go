package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSessionID is returned for an empty session ID.
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrLockAcquire is returned when a distributed lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// ErrorKind classifies adapter failures so the pipeline can pick a fallback.
type ErrorKind int

const (
	// KindUnavailable means the collaborator is not configured or not reachable.
	KindUnavailable ErrorKind = iota + 1
	// KindCallFailure means the call was attempted and failed (timeout, bad status, exception).
	KindCallFailure
	// KindUnparseable means the collaborator answered with malformed structured output.
	KindUnparseable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindCallFailure:
		return "call_failure"
	case KindUnparseable:
		return "unparseable"
	}
	return "none"
}

// AdapterError is the error type returned by every external collaborator.
type AdapterError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as a KindUnavailable adapter error.
func Unavailable(op string, err error) error {
	return &AdapterError{Kind: KindUnavailable, Op: op, Err: err}
}

// CallFailed wraps err as a KindCallFailure adapter error.
func CallFailed(op string, err error) error {
	return &AdapterError{Kind: KindCallFailure, Op: op, Err: err}
}

// Unparseable wraps err as a KindUnparseable adapter error.
func Unparseable(op string, err error) error {
	return &AdapterError{Kind: KindUnparseable, Op: op, Err: err}
}

// KindOf returns the kind of err. Untyped errors, including context
// cancellation and deadlines, count as call failures. A nil error has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindCallFailure
}
