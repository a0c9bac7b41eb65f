package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptySource       = errors.New("source is empty or could not be read")
	ErrInvalidJSON       = errors.New("invalid JSON format")
	ErrPathNotFound      = errors.New("path not found")
	ErrNotEqual          = errors.New("values are not equal")
	ErrNilExpected       = errors.New("expected value is nil")
	ErrInvalidPath       = errors.New("invalid path expression")
	ErrUnsupportedMethod = errors.New("unsupported request method")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeParse           ErrorType = "parse"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeNotEqual        ErrorType = "not_equal"
	ErrorTypeInvalidInput    ErrorType = "invalid_input"
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeIO              ErrorType = "io"
	ErrorTypeConfig          ErrorType = "config"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewParseError creates an error for malformed JSON
func NewParseError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeParse, Message: message, Err: err}
}

// NewNotFoundError creates an error for a path that yields nothing
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message, Err: err}
}

// NewNotEqualError creates an error for a failed equality assertion
func NewNotEqualError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeNotEqual, Message: message, Err: err}
}

// NewInputError creates an error for a blank or unreadable source
func NewInputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message, Err: err}
}

// NewArgumentError creates an error for an invalid caller-supplied argument
func NewArgumentError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message, Err: err}
}

// NewIOError creates an error for a failed file or network read
func NewIOError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeIO, Message: message, Err: err}
}

// NewConfigError creates an error for unusable configuration
func NewConfigError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfig, Message: message, Err: err}
}

// IsType reports whether err carries an *AppError of the given type
func IsType(err error, t ErrorType) bool {
	return errors.Is(err, &AppError{Type: t})
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeParse:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeNotFound:
			return fmt.Sprintf("Not found: %s", appErr.Message)
		case ErrorTypeNotEqual:
			return fmt.Sprintf("Not equal: %s", appErr.Message)
		case ErrorTypeInvalidInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeInvalidArgument:
			return fmt.Sprintf("Invalid argument: %s", appErr.Message)
		case ErrorTypeIO:
			return fmt.Sprintf("I/O error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptySource) {
		return "Error: The source is empty. Please provide JSON text, a file path or a URL."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrPathNotFound) {
		return "Error: The path did not match anything in the document."
	}

	return fmt.Sprintf("Error: %v", err)
}
