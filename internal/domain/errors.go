package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ledger failure so transports can map it to a
// user-facing response without parsing messages.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindInvalidAmount        ErrorKind = "INVALID_AMOUNT"
	KindInsufficientCapacity ErrorKind = "INSUFFICIENT_CAPACITY"
	KindExceedsObligation    ErrorKind = "EXCEEDS_OBLIGATION"
	KindInvalidState         ErrorKind = "INVALID_STATE"
	KindConcurrencyConflict  ErrorKind = "CONCURRENCY_CONFLICT"
)

// Error is a ledger failure with a machine-readable kind and a
// human-readable message. Every failure aborts the enclosing transaction.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func InvalidAmountf(format string, args ...any) *Error {
	return newError(KindInvalidAmount, format, args...)
}

func InsufficientCapacityf(format string, args ...any) *Error {
	return newError(KindInsufficientCapacity, format, args...)
}

func ExceedsObligationf(format string, args ...any) *Error {
	return newError(KindExceedsObligation, format, args...)
}

func InvalidStatef(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func ConcurrencyConflictf(format string, args ...any) *Error {
	return newError(KindConcurrencyConflict, format, args...)
}

// KindOf extracts the ErrorKind from err, or "" for non-ledger errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
