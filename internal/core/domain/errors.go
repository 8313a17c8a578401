package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP boundary can translate it without
// inspecting messages.
type Kind int

const (
	// KindUnexpected covers storage failures, broken invariants and anything
	// not classified otherwise. Its message is never shown to callers.
	KindUnexpected Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindUpload:
		return "upload"
	default:
		return "unexpected"
	}
}

// Error is the classified error every core component returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error     { return newError(KindValidation, msg, nil) }
func Authentication(msg string) *Error { return newError(KindAuthentication, msg, nil) }
func Authorization(msg string) *Error  { return newError(KindAuthorization, msg, nil) }
func Upload(msg string) *Error         { return newError(KindUpload, msg, nil) }

// Unexpected wraps a cause that must not reach the caller.
func Unexpected(msg string, err error) *Error {
	return newError(KindUnexpected, msg, err)
}

var (
	ErrNotAuthenticated = Authorization("not authenticated")
	ErrAccessDenied     = Authorization("access denied")
	ErrWrongCredentials = Authentication("Wrong credentials")
)

// KindOf reports the kind of the first *Error in err's chain. Errors that
// carry no kind are unexpected.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// AsError returns err as a classified *Error, wrapping it as unexpected when
// it has no kind yet.
func AsError(err error, msg string) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Unexpected(msg, err)
}
