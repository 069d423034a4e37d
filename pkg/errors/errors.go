package errors

import (
	"errors"
	"fmt"
)

// Code is the stable error kind the API, the MCP tools and the publish log
// report to callers.
type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeInvalid       Code = "invalid"
	CodeNotFound      Code = "not_found"
	CodeConflict      Code = "conflict"
	CodeUnauthorized  Code = "unauthorized"
	CodeForbidden     Code = "forbidden"
	CodeInternal      Code = "internal"
	CodeUnavailable   Code = "unavailable"
	CodeDeadline      Code = "deadline_exceeded"
	CodeAlreadyExists Code = "already_exists"
)

// AppError carries a code, a message meant for editors and operators, and
// the underlying cause.
type AppError struct {
	Code    Code
	Message string
	Err     error
	Meta    map[string]any
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithMeta attaches metadata to the error.
func (e *AppError) WithMeta(k string, v any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps err with code and message. A nil err gives a plain New.
func Wrap(err error, code Code, message string) *AppError {
	if err == nil {
		return New(code, message)
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode reports whether err, or anything it wraps, is an AppError with code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// CodeOf returns the code of the outermost AppError in err's chain,
// CodeUnknown for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Recode replaces err with a fresh error of code to and the given message
// when err carries code from. Any other error is returned as is. Repository
// lookups use it to turn a bare "record not found" into a message that names
// what was missing.
func Recode(err error, from, to Code, message string) error {
	if IsCode(err, from) {
		return New(to, message)
	}
	return err
}

// NotFound rewrites a not_found err with message; see Recode.
func NotFound(err error, message string) error {
	return Recode(err, CodeNotFound, CodeNotFound, message)
}

// MessageOf is the text written to publish logs and run errors: the
// AppError message, followed by its cause when there is one.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Err != nil {
			return ae.Message + ": " + ae.Err.Error()
		}
		return ae.Message
	}
	return err.Error()
}

// Expected reports whether err is an outcome a caller can act on, as opposed
// to an internal fault that should surface as a server error.
func Expected(err error) bool {
	switch CodeOf(err) {
	case "", CodeInternal, CodeUnknown:
		return false
	}
	return true
}
