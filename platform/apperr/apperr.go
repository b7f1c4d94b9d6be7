// Package apperr carries the error taxonomy shared by the dialer and the
// territory ledger. Services return these values; platform/httpkit turns the
// Kind into a status code.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure by what the caller should do about it.
type Kind int

const (
	// KindUnknown is an untyped failure, usually the store. Reported as 500.
	KindUnknown Kind = iota
	// KindValidation rejects the input. Nothing was written.
	KindValidation
	// KindNotFound means the addressed record does not exist.
	KindNotFound
	// KindConflict means the request lost against existing or concurrent state,
	// e.g. a lead leased to another agent or a zone with a live owner.
	KindConflict
	// KindInternal is an invariant broken inside the process.
	KindInternal
)

var statusByKind = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound:   http.StatusNotFound,
	KindConflict:   http.StatusConflict,
	KindInternal:   http.StatusInternalServerError,
}

// Error is a typed failure. Details is serialized next to the message, e.g.
// the current owner of a zone.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to a response code.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails attaches response details and returns e.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap keeps err in the chain; only message reaches the client.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }

// GetKind finds the first *Error in the chain. Plain errors are KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
