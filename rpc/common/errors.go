package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type ErrCode),
// an error message and an optional cause.
type Error struct {
	Code ErrCode // The error code
	Msg  string  // The error message
	Err  error   // The underlying cause, may be nil

	timeout bool
}

// NewError creates a new Error with the given code, message and cause.
func NewError(code ErrCode, msg string, cause error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  cause,
	}
}

// NewTimeoutError creates a network error caused by an expired deadline or a cancelled context
func NewTimeoutError(msg string, cause error) *Error {
	return &Error{
		Code:    ErrCNetwork,
		Msg:     msg,
		Err:     cause,
		timeout: true,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so the sentinels below can be used with errors.Is
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Timeout reports whether the error was caused by a deadline or cancellation
func (e *Error) Timeout() bool {
	return e.timeout
}

// IsTimeout reports whether err is a network error caused by a deadline or cancellation
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Timeout()
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrCode uint8

const (
	ErrCUnknown              ErrCode = iota
	ErrCNetwork                      // connect, timeout or reset
	ErrCDecode                       // malformed response payload
	ErrCRedirectLoop                 // redirect hop bound exceeded
	ErrCKeyNotFound                  // read of a key absent after refresh
	ErrCInvalidConfiguration         // e.g. non-positive count policy maximum
	ErrCEncode                       // request could not be encoded locally
)

// String returns the string representation of an ErrCode.
func (c ErrCode) String() string {
	switch c {
	case ErrCNetwork:
		return "NetworkError"
	case ErrCDecode:
		return "DecodeError"
	case ErrCRedirectLoop:
		return "RedirectLoopError"
	case ErrCKeyNotFound:
		return "KeyNotFound"
	case ErrCInvalidConfiguration:
		return "InvalidConfiguration"
	case ErrCEncode:
		return "EncodeError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is
var (
	ErrNetwork              = &Error{Code: ErrCNetwork}
	ErrDecode               = &Error{Code: ErrCDecode}
	ErrRedirectLoop         = &Error{Code: ErrCRedirectLoop}
	ErrKeyNotFound          = &Error{Code: ErrCKeyNotFound}
	ErrInvalidConfiguration = &Error{Code: ErrCInvalidConfiguration}
	ErrEncode               = &Error{Code: ErrCEncode}
)
