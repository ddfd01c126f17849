package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Error is returned when the underlying storage engine fails.
type Error struct {
	// Op is the name of the operation that failed, such as "get" or "write".
	Op string

	// Key is the key that was being operated upon, if any.
	Key []byte

	// Cause is the error reported by the engine.
	Cause error
}

func (e *Error) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("unable to %s: %s", e.Op, e.Cause)
	}
	return fmt.Sprintf("unable to %s %s: %s", e.Op, strconv.Quote(string(e.Key)), e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsStoreError returns true if err is caused by an [Error].
func IsStoreError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// Fail returns an [Error] describing the failure of op on k, or nil if cause is
// nil.
//
// Errors that are already an [Error], and context errors, are returned
// unchanged.
func Fail(op string, k []byte, cause error) error {
	if cause == nil {
		return nil
	}

	if IsStoreError(cause) ||
		errors.Is(cause, context.Canceled) ||
		errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}

	return &Error{
		Op:    op,
		Key:   append([]byte(nil), k...),
		Cause: cause,
	}
}
