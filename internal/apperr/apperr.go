// Package apperr holds the error taxonomy shared by every component.
// An *Error carries a Kind that decides how the failure is reported,
// and optionally wraps the underlying cause so errors.Is/As keep working.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation    Kind = "validation"
	NotFound      Kind = "not_found"
	AlreadyMember Kind = "already_member"
	Unauthorized  Kind = "unauthorized"
	Store         Kind = "store"
)

type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: err}
}

func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: err}
}

// KindOf returns Store for errors that didn't come from this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Store
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyMember:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
