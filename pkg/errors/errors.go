// Package errors provides the structured error taxonomy of the bridge.
//
// Every domain failure carries an ErrorType that maps to a distinct, stable
// return code. The host surfaces the message and the code; callers inspect
// the type with IsType or Code.
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/sparquet/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeBufferTooSmall is raised when a string value exceeds the host width
	ErrorTypeBufferTooSmall ErrorType = "buffer_too_small"
	// ErrorTypeUnsupportedType is raised for host type codes the writer cannot encode
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	// ErrorTypeUnknownType is raised for physical types the bridge does not know
	ErrorTypeUnknownType ErrorType = "unknown_type"
	// ErrorTypeNotImplemented is raised for 96-bit integer columns
	ErrorTypeNotImplemented ErrorType = "not_implemented"
	// ErrorTypeRowGroupOutOfRange is raised for row-group selections past the end of a file
	ErrorTypeRowGroupOutOfRange ErrorType = "row_group_out_of_range"
	// ErrorTypeSchemaMismatch is raised when files in a manifest disagree on their schema
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
	// ErrorTypeMissingNotSupported is raised when the low-level writer meets a missing value
	ErrorTypeMissingNotSupported ErrorType = "missing_not_supported"
	// ErrorTypeNoObservations is raised for empty write requests
	ErrorTypeNoObservations ErrorType = "no_observations"
	// ErrorTypeHostIO represents failures reading or writing host state
	ErrorTypeHostIO ErrorType = "host_io"
	// ErrorTypeUnderlyingLibrary wraps failures raised by the columnar library
	ErrorTypeUnderlyingLibrary ErrorType = "underlying_library"
	// ErrorTypeInvalidArgument represents malformed commands or selections
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
)

// codes are the host return codes per error type. Zero is success.
var codes = map[ErrorType]int{
	ErrorTypeBufferTooSmall:      17103,
	ErrorTypeUnsupportedType:     17102,
	ErrorTypeUnknownType:         17100,
	ErrorTypeNotImplemented:      17101,
	ErrorTypeRowGroupOutOfRange:  17301,
	ErrorTypeSchemaMismatch:      17201,
	ErrorTypeMissingNotSupported: 17042,
	ErrorTypeNoObservations:      2000,
	ErrorTypeHostIO:              601,
	ErrorTypeUnderlyingLibrary:   17000,
	ErrorTypeInvalidArgument:     198,
}

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Code returns the host return code of the error type.
func (e *Error) Code() int {
	return CodeOf(e.Type)
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: stringpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. Errors that already
// carry a type keep it; the wrapper only adds the message.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    existingErr.Type,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of a structured error, or the underlying-library
// type for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnderlyingLibrary
}

// CodeOf returns the host return code for an error type.
func CodeOf(errType ErrorType) int {
	if code, ok := codes[errType]; ok {
		return code
	}
	return codes[ErrorTypeUnderlyingLibrary]
}

// Code maps any error to its host return code; nil maps to 0.
func Code(err error) int {
	if err == nil {
		return 0
	}
	return CodeOf(TypeOf(err))
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
