package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies expected business failures. Anything that is not an *Error
// is reported as KindInternal.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindConflict             Kind = "conflict"
	KindInvalidState         Kind = "invalid_state"
	KindCommunicationBlocked Kind = "communication_blocked"
	KindValidation           Kind = "validation_error"
	KindRateLimited          Kind = "rate_limited"
	KindInternal             Kind = "internal_error"
)

// Error is a structured business failure carrying a stable code and a
// human-readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   *Error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// WithMessage returns a copy of e with a caller-specific message. The copy
// still matches e under errors.Is.
func (e *Error) WithMessage(message string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: message, cause: e.root()}
}

// WithMessagef is WithMessage with formatting.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.cause != nil {
		return e.cause
	}
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsBusiness reports whether err is an expected business failure rather than
// an infrastructure fault.
func IsBusiness(err error) bool {
	kind := KindOf(err)
	return kind != "" && kind != KindInternal
}

func NotFound(code, message string) *Error     { return New(KindNotFound, code, message) }
func Forbidden(code, message string) *Error    { return New(KindForbidden, code, message) }
func Conflict(code, message string) *Error     { return New(KindConflict, code, message) }
func InvalidState(code, message string) *Error { return New(KindInvalidState, code, message) }
func Validation(code, message string) *Error   { return New(KindValidation, code, message) }
func Blocked(code, message string) *Error      { return New(KindCommunicationBlocked, code, message) }
func RateLimited(code, message string) *Error  { return New(KindRateLimited, code, message) }
