package telemetry

import (
	"errors"
	"fmt"
)

// Kind classifies command-side failures so callers can branch without type switches.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindValidation marks bad input. Never retried.
	KindValidation
	// KindDuplicate marks a reading whose (device, date) was already accepted.
	KindDuplicate
	// KindStoreUnavailable marks a durable-store failure before anything was committed. Retryable.
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error carries a Kind together with the failed operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewError wraps err with the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ErrBrokerUnavailable is reported by publishers when an event could not leave the process.
// The ingestion path absorbs it into the fallback store; it never reaches a caller.
var ErrBrokerUnavailable = errors.New("broker unavailable")
