package domain

import "fmt"

type ErrorCode uint

const (
	ErrInternalServerError ErrorCode = iota + 1
	ErrNotFound
	ErrConflict
	ErrBadParamInput
)

const MessageInternalServerError = "internal server error"

// Error wraps a lower-level error with a code the router maps onto an HTTP
// status.
type Error struct {
	orig error
	msg  string
	code ErrorCode
}

func WrapErrorf(orig error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		orig: orig,
		code: code,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(code ErrorCode, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() ErrorCode {
	return e.code
}
