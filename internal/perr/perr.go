// Package perr classifies errors by recoverability so the reply loop can
// decide between "log and continue" and "terminate the process".
package perr

import (
	"errors"
	"fmt"
)

// Kind groups errors by how the caller should react.
type Kind int

const (
	// KindUnknown is an unclassified error.
	KindUnknown Kind = iota
	// KindInitialization covers credential and client construction failures.
	// These are fatal: they indicate malformed configuration, not a
	// transient condition.
	KindInitialization
	// KindPlatformAPI covers network or API failures talking to the social
	// platform or the activity feed. Recovered by skipping to the next
	// iteration.
	KindPlatformAPI
	// KindCompletionAPI covers completion-generation failures, scoped to a
	// single mention.
	KindCompletionAPI
	// KindStore covers cursor persistence failures. Logged; the in-memory
	// cursor still advances for the remainder of the run.
	KindStore
	// KindInvalidCallback means an authorization callback did not match the
	// active request-token session.
	KindInvalidCallback
	// KindTokenExchange means the platform rejected a token handshake step.
	KindTokenExchange
)

func (k Kind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindPlatformAPI:
		return "platform_api"
	case KindCompletionAPI:
		return "completion_api"
	case KindStore:
		return "store"
	case KindInvalidCallback:
		return "invalid_callback"
	case KindTokenExchange:
		return "token_exchange"
	default:
		return "unknown"
	}
}

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation name.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with fmt.Errorf formatting.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err should terminate the process rather than be
// retried on a later iteration.
func IsFatal(err error) bool {
	return KindOf(err) == KindInitialization
}
