package apperror

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
)

// Kind is the closed set of failure shapes the API distinguishes. Every
// error that reaches a client is normalized to exactly one of these.
type Kind string

const (
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindDuplicateField    Kind = "duplicate_field"
	KindValidationFailed  Kind = "validation_failed"
	KindInvalidToken      Kind = "invalid_token"
	KindTokenExpired      Kind = "token_expired"
	KindNotAuthenticated  Kind = "not_authenticated"
	KindStalePassword     Kind = "stale_password"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindBadRequest        Kind = "bad_request"
	KindUnavailable       Kind = "unavailable"
	KindTooManyRequests   Kind = "too_many_requests"
	KindInternal          Kind = "internal"
)

// Error carries a client-safe status and message plus the wrapped cause.
// Internal errors also carry the stack captured where they surfaced; it is
// shown in development responses and never in production ones.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Operational reports whether the error is an expected domain condition
// whose message may be shown to clients in production. Internal faults are
// not; they are logged and replaced with a generic message.
func (e *Error) Operational() bool { return e.Kind != KindInternal }

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func InvalidIdentifier(field, value string) *Error {
	return newError(KindInvalidIdentifier, http.StatusBadRequest,
		fmt.Sprintf("Invalid %s: %s.", field, value))
}

func DuplicateField(value string) *Error {
	return newError(KindDuplicateField, http.StatusBadRequest,
		fmt.Sprintf("Duplicate field value entered: %q. Please use another value!", value))
}

func ValidationFailed(messages ...string) *Error {
	return newError(KindValidationFailed, http.StatusBadRequest,
		"Invalid input data. "+strings.Join(messages, ". "))
}

func InvalidToken(cause error) *Error {
	e := newError(KindInvalidToken, http.StatusUnauthorized, "Invalid token")
	e.Err = cause
	return e
}

func TokenExpired() *Error {
	return newError(KindTokenExpired, http.StatusUnauthorized, "Token expired, please log in again")
}

func NotAuthenticated(message string) *Error {
	return newError(KindNotAuthenticated, http.StatusUnauthorized, message)
}

func StalePassword() *Error {
	return newError(KindStalePassword, http.StatusUnauthorized, "User recently changed password, please log in again")
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message)
}

func BadRequest(message string) *Error {
	return newError(KindBadRequest, http.StatusBadRequest, message)
}

func Unavailable(message string) *Error {
	return newError(KindUnavailable, http.StatusServiceUnavailable, message)
}

func TooManyRequests(message string) *Error {
	return newError(KindTooManyRequests, http.StatusTooManyRequests, message)
}

func Internal(cause error) *Error {
	e := newError(KindInternal, http.StatusInternalServerError, "Something went wrong")
	e.Err = cause
	e.Stack = debug.Stack()
	return e
}
