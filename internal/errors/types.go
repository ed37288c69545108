// Package errors defines the diagnostics afmt reports while compiling
// templates.
//
// Every failure of the template pipeline is a build-time diagnostic: an
// *AfmtError carrying a stable code, a message and the source location of
// the offending directive. Nothing in generated code can fail at run time.
package errors

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeTemplate ErrorType = "template"
	ErrorTypeBinding  ErrorType = "binding"
	ErrorTypeType     ErrorType = "type"
	ErrorTypeCapacity ErrorType = "capacity"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Diagnostic codes.
const (
	ErrCodeUnterminatedPlaceholder = "ERR_UNTERMINATED_PLACEHOLDER"
	ErrCodeMissingArgument         = "ERR_MISSING_ARGUMENT"
	ErrCodeMissingSeparator        = "ERR_MISSING_SEPARATOR"
	ErrCodeUnknownArgument         = "ERR_UNKNOWN_ARGUMENT"
	ErrCodeCapacityInsufficient    = "ERR_CAPACITY_INSUFFICIENT"
	ErrCodeInvalidArgument         = "ERR_INVALID_ARGUMENT"
	ErrCodeUnusedArgument          = "ERR_UNUSED_ARGUMENT"
	ErrCodeNotRenderable           = "ERR_NOT_RENDERABLE"
	ErrCodeInvalidDestination      = "ERR_INVALID_DESTINATION"
	ErrCodeInvalidDirective        = "ERR_INVALID_DIRECTIVE"
	ErrCodeLoadFailed              = "ERR_LOAD_FAILED"
	ErrCodeWriteFailed             = "ERR_WRITE_FAILED"
	ErrCodeConfigInvalid           = "ERR_CONFIG_INVALID"
	ErrCodeInternalError           = "ERR_INTERNAL"
)

// AfmtError is a structured diagnostic with a source location.
type AfmtError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Func     string
	FilePath string
	Line     int
	Column   int
}

// Error implements the error interface.
func (e *AfmtError) Error() string {
	var parts []string

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location+":")
	}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Func != "" {
		parts = append(parts, "func:"+e.Func)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AfmtError) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same type and code.
func (e *AfmtError) Is(target error) bool {
	var t *AfmtError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// Located reports whether the error already carries a position.
func (e *AfmtError) Located() bool {
	return e.FilePath != "" || e.Line > 0
}

// WithContext adds context information to the error.
func (e *AfmtError) WithContext(key string, value interface{}) *AfmtError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithLocation adds file location information.
func (e *AfmtError) WithLocation(filePath string, line, column int) *AfmtError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// At sets the location from a position in fset. Errors that are already
// located keep their original position.
func (e *AfmtError) At(fset *token.FileSet, pos token.Pos) *AfmtError {
	if e.Located() || fset == nil || !pos.IsValid() {
		return e
	}
	p := fset.Position(pos)

	return e.WithLocation(p.Filename, p.Line, p.Column)
}

// WithFunc names the stub function the diagnostic belongs to.
func (e *AfmtError) WithFunc(name string) *AfmtError {
	e.Func = name

	return e
}

// Error creation functions

// NewTemplateError creates a template syntax error.
func NewTemplateError(code, message string) *AfmtError {
	return &AfmtError{Type: ErrorTypeTemplate, Code: code, Message: message}
}

// NewBindingError creates an argument binding error.
func NewBindingError(code, message string, cause error) *AfmtError {
	return &AfmtError{Type: ErrorTypeBinding, Code: code, Message: message, Cause: cause}
}

// NewTypeError creates a capability resolution error.
func NewTypeError(code, message string) *AfmtError {
	return &AfmtError{Type: ErrorTypeType, Code: code, Message: message}
}

// NewCapacityError creates a capacity verification error.
func NewCapacityError(code, message string) *AfmtError {
	return &AfmtError{Type: ErrorTypeCapacity, Code: code, Message: message}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AfmtError {
	return &AfmtError{Type: ErrorTypeIO, Code: code, Message: message, Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *AfmtError {
	return &AfmtError{Type: ErrorTypeConfig, Code: code, Message: message}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *AfmtError {
	return &AfmtError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

// Code returns the diagnostic code of err, or "" if err is not an AfmtError.
func Code(err error) string {
	var ae *AfmtError
	if errors.As(err, &ae) {
		return ae.Code
	}

	return ""
}

// IsTemplateError checks if an error comes from the template or its arguments.
func IsTemplateError(err error) bool {
	var ae *AfmtError
	if errors.As(err, &ae) {
		return ae.Type == ErrorTypeTemplate || ae.Type == ErrorTypeBinding
	}

	return false
}

// IsCapacityError checks if an error is a capacity verification failure.
func IsCapacityError(err error) bool {
	var ae *AfmtError
	if errors.As(err, &ae) {
		return ae.Type == ErrorTypeCapacity
	}

	return false
}

// ErrorHandler provides centralized error reporting.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error with fields matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ae *AfmtError
	if !errors.As(err, &ae) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ae.Type {
	case ErrorTypeTemplate, ErrorTypeBinding, ErrorTypeType, ErrorTypeCapacity:
		h.logger.Warn(ctx, ae, "Template diagnostic",
			"type", ae.Type,
			"code", ae.Code,
			"func", ae.Func,
			"file", ae.FilePath,
			"line", ae.Line)
	default:
		h.logger.Error(ctx, ae, "Error occurred",
			"type", ae.Type,
			"code", ae.Code)
	}
}
