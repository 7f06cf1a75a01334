// Package errs defines the failure kinds shared by the fetch and conversion paths.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for reporting and metrics.
type Kind string

const (
	// KindNotFound is a missing input file (conversion path).
	KindNotFound Kind = "not_found"

	// KindHTTP is any response from the GraphQL endpoint other than 200 OK.
	KindHTTP Kind = "http"

	// KindResponse is a malformed body, an explicit "errors" field, or a
	// response missing the expected data.
	KindResponse Kind = "response"

	// KindNetwork is a timeout or connection-level failure.
	KindNetwork Kind = "network"

	// KindUnexpected is everything else.
	KindUnexpected Kind = "unexpected"
)

// Error carries the failure kind together with its diagnostic payload.
type Error struct {
	Kind Kind

	// Op names the operation that failed, e.g. "fetch page" or "read input".
	Op string

	// StatusCode is set for KindHTTP.
	StatusCode int

	// Payload holds the raw "errors" field or a body excerpt.
	Payload string

	// Timeout is set for KindNetwork failures caused by a deadline.
	Timeout bool

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Timeout {
		msg += " (timeout)"
	}
	if e.Payload != "" {
		msg += ": " + e.Payload
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// match with errors.Is(err, &errs.Error{Kind: errs.KindHTTP}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// HTTP returns a KindHTTP error for the given status.
func HTTP(op string, statusCode int, body string) *Error {
	return &Error{Kind: KindHTTP, Op: op, StatusCode: statusCode, Payload: body}
}

// Response returns a KindResponse error.
func Response(op, payload string, err error) *Error {
	return &Error{Kind: KindResponse, Op: op, Payload: payload, Err: err}
}

// Network returns a KindNetwork error.
func Network(op string, timeout bool, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Timeout: timeout, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors not produced by this package report KindUnexpected; nil reports "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
