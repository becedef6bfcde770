// Package apperrors classifies business errors so handlers can map each
// failure to a targeted HTTP response instead of a generic 500.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind distinguishes the recoverable validation failures from store faults.
type Kind int

const (
	// KindStore is the default for unclassified persistence failures.
	KindStore Kind = iota
	// KindInvalidInput covers malformed dates, bad quantities, missing fields.
	KindInvalidInput
	// KindConflict covers duplicate registrations and duplicate customers.
	KindConflict
	// KindRestriction covers deletes blocked by an active rental reference.
	KindRestriction
	// KindNotFound covers ids that do not resolve.
	KindNotFound
)

// Error carries a Kind alongside the message shown to the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error with a formatted message.
func E(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error while keeping it in the chain.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or KindStore when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// StatusCode maps an error to the HTTP status a handler should return.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindRestriction:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
