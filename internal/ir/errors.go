package ir

import (
	"errors"
	"fmt"
)

// Code is the outcome of a module operation.
type Code string

const (
	CodeAlreadyExists         Code = "ALREADY_EXISTS"
	CodeCreated               Code = "CREATED"
	CodeInvalidName           Code = "INVALID_NAME"
	CodeCompileFailed         Code = "COMPILE_FAILED"
	CodeNameCollision         Code = "NAME_COLLISION"
	CodeImportInitFailed      Code = "IMPORT_INIT_FAILED"
	CodeWrongPrototypeType    Code = "WRONG_PROTOTYPE_TYPE"
	CodeUnknownParameter      Code = "UNKNOWN_PARAMETER"
	CodeParameterTypeMismatch Code = "PARAMETER_TYPE_MISMATCH"
	CodeUnspecified           Code = "UNSPECIFIED"
	CodeBadAnnotationArgument Code = "BAD_ANNOTATION_ARGUMENT"
	CodeUnsupportedAnnotation Code = "UNSUPPORTED_ANNOTATION"
	CodeBadParameterPath      Code = "BAD_PARAMETER_PATH"
	CodeNonUniformArgument    Code = "NON_UNIFORM_ARGUMENT"
)

// Success reports whether c is a non-failure outcome.
func (c Code) Success() bool {
	return c == CodeCreated || c == CodeAlreadyExists
}

// Error is a failure carrying a result code. Name is the module, definition
// or parameter the failure is about.
type Error struct {
	Code    Code
	Name    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an *Error with a formatted message.
func NewError(code Code, name, format string, args ...any) *Error {
	return &Error{Code: code, Name: name, Message: fmt.Sprintf(format, args...)}
}

// WrapError returns an *Error wrapping err.
func WrapError(code Code, name string, err error, msg string) *Error {
	return &Error{Code: code, Name: name, Message: msg, Err: err}
}

// CodeOf extracts the result code carried by err. It returns "" for nil and
// CodeUnspecified for errors without a code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnspecified
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
