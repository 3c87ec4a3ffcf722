package marketplace

import (
	"errors"
	"fmt"
)

// ErrorKind separates expected rejections from retryable faults so the
// orchestrator never has to string-match error messages.
type ErrorKind int

const (
	// ErrKindTransient covers timeouts, 5xx responses and rate limits.
	// Retried with backoff, bounded attempts.
	ErrKindTransient ErrorKind = iota

	// ErrKindValidation covers data the marketplace rejected. Never retried
	// automatically; the underlying data needs a human fix.
	ErrKindValidation

	// ErrKindFatal covers terminal remote conditions (cancelled/fatal feeds,
	// revoked credentials). Not retried with the same payload.
	ErrKindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindValidation:
		return "validation"
	case ErrKindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// Error is a marketplace call failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("marketplace %s: %s", e.Op, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation-kind error.
func Validation(op, msg string) *Error {
	return &Error{Kind: ErrKindValidation, Op: op, Msg: msg}
}

// Transient builds a transient-kind error wrapping the cause.
func Transient(op, msg string, err error) *Error {
	return &Error{Kind: ErrKindTransient, Op: op, Msg: msg, Err: err}
}

// Fatal builds a fatal-kind error.
func Fatal(op, msg string, err error) *Error {
	return &Error{Kind: ErrKindFatal, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the error kind. Untagged errors (raw network failures,
// context timeouts) default to transient so they stay retryable.
func KindOf(err error) ErrorKind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ErrKindTransient
}
