// Package errors provides coded errors shared by the weather-station packages.
package errors

import (
	"errors"
	"fmt"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// ErrorCode identifies an error category.
type ErrorCode string

const (
	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrBindFlags     ErrorCode = "bind_flags_failed"

	// Hardware errors
	ErrInitHardware ErrorCode = "init_hardware_failed"
	ErrSensorRead   ErrorCode = "sensor_read_failed"

	// Network errors
	ErrTransport        ErrorCode = "transport_failed"
	ErrMalformedRequest ErrorCode = "malformed_request"
	ErrOversized        ErrorCode = "response_oversized"
	ErrPublish          ErrorCode = "publish_failed"

	// Web UI errors
	ErrRenderPage ErrorCode = "render_page_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrInvalidConfig:    "Invalid configuration",
	ErrReadConfig:       "Failed to read configuration",
	ErrBindFlags:        "Failed to bind flags",
	ErrInitHardware:     "Hardware initialization failed",
	ErrSensorRead:       "Failed to read sensor",
	ErrTransport:        "Transport failure",
	ErrMalformedRequest: "Malformed request",
	ErrOversized:        "Response exceeds buffer bound",
	ErrPublish:          "Failed to publish message",
	ErrRenderPage:       "Failed to render page",
}

// Message returns the default message for a code.
func Message(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return string(code)
}

// Error is an error carrying a code, an optional detail and an optional cause.
type Error struct {
	Code   ErrorCode
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := Message(e.Code)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so sentinel values built with New
// can be used as errors.Is targets.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Detail == "" && t.Err == nil
}

// New creates an error with the given code.
func New(code ErrorCode) *Error {
	return &Error{Code: code}
}

// Newf creates an error with the given code and a formatted detail.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to err. Returns nil when err is nil.
func Wrap(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// Wrapf attaches a code and a formatted detail to err. Returns nil when err is nil.
func Wrapf(code ErrorCode, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
