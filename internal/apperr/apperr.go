// Package apperr is the error taxonomy shared by every service. Each error
// carries a Kind that the HTTP layer maps to a status code and a reason that
// is safe to show to the caller.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindConflict        Kind = "CONFLICT"
	KindStateTransition Kind = "STATE_TRANSITION"
	KindAuthorization   Kind = "AUTHORIZATION"
	KindNotFound        Kind = "NOT_FOUND"
)

type Error struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason"`
}

func (e *Error) Error() string {
	return e.Reason
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

func StateTransition(format string, args ...any) *Error {
	return New(KindStateTransition, fmt.Sprintf(format, args...))
}

func Authorization(format string, args ...any) *Error {
	return New(KindAuthorization, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
