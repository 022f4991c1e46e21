// Package errs defines the coded errors shared by the bot services.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies an error class in logs (err_code) and in errors.Is checks.
type Code string

const (
	CodeNotSubscribed    Code = "NOT_SUBSCRIBED"
	CodeCityNotFound     Code = "CITY_NOT_FOUND"
	CodeSessionExpired   Code = "SESSION_EXPIRED"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrNotSubscribed    = New(CodeNotSubscribed, "user is not subscribed")
	ErrCityNotFound     = New(CodeCityNotFound, "city not found")
	ErrSessionExpired   = New(CodeSessionExpired, "session expired")
	ErrStoreUnavailable = New(CodeStoreUnavailable, "subscription store unavailable")
)

// Error is a coded error with an optional cause.
type Error struct {
	Kind    Code
	Message string
	cause   error
}

// New creates an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{Kind: code, Message: message}
}

// Wrap creates an Error that unwraps to cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Kind: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the error code as a string for log fields.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
