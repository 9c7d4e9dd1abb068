// Package errors provides the error codes surfaced by a slicing run.
//
// Every failure that aborts a run is reported as an *Error carrying a code
// and, where one exists, the path of the offending file:
//
//	err := errors.Wrap(errors.ErrCodeDecode, cause, "failed to decode image").WithPath(path)
//	if errors.Is(err, errors.ErrCodeDecode) {
//	    // unreadable source
//	}
package errors

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Code represents a machine-readable error code.
type Code string

const (
	// ErrCodeDecode marks a source that cannot be read as an image.
	ErrCodeDecode Code = "DECODE_ERROR"

	// ErrCodeInvalidDimension marks a zero-area or degenerate raster.
	ErrCodeInvalidDimension Code = "INVALID_DIMENSION"

	// ErrCodeIO marks a failure to create, write or rename an output file.
	ErrCodeIO Code = "IO_ERROR"

	// ErrCodeInvalidInput marks bad configuration or request parameters.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
)

// Error is a structured error with a code, the path it relates to and an optional cause.
type Error struct {
	Code    Code
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithPath records the file the error relates to and returns e.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// AttachPath records path on the outermost *Error in err's chain unless it already has one.
// err is returned as-is, wrappers included; errors without an *Error pass through untouched.
func AttachPath(err error, path string) error {
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		e.Path = path
	}
	return err
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// The outermost *Error in the chain wins.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix, naming the file by its
// base name only. Errors that are not *Error are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if path := PathOf(err); path != "" {
		return fmt.Sprintf("%s (%s)", e.Message, filepath.Base(path))
	}
	return e.Message
}

// PathOf returns the path recorded on the first *Error in the chain that has one.
func PathOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Path != "" {
			return e.Path
		}
		err = e.Cause
	}
	return ""
}
