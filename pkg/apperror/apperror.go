package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors into the categories the API surfaces.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindAuthorization
	KindState
	KindNotFound
	KindInternal
)

// Error is the application error carried from services up to the HTTP layer.
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindState:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message safe to show a caller. Authorization and
// not-found errors stay generic so a response never confirms whether a
// resource exists in another tenant.
func (e *Error) Public() string {
	switch e.Kind {
	case KindAuthorization:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindInternal:
		return "internal server error"
	default:
		return e.Message
	}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Authorization(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func State(message string) *Error {
	return &Error{Kind: KindState, Message: message}
}

func Statef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// From extracts an *Error from err's chain, wrapping unknown errors as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func IsValidation(err error) bool    { return IsKind(err, KindValidation) }
func IsConflict(err error) bool      { return IsKind(err, KindConflict) }
func IsAuthorization(err error) bool { return IsKind(err, KindAuthorization) }
func IsState(err error) bool         { return IsKind(err, KindState) }
func IsNotFound(err error) bool      { return IsKind(err, KindNotFound) }
