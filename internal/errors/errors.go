package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is an application-specific error type
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wraps an error with a code and message
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Error code constants
const (
	CodeInternal   = "INTERNAL_ERROR"
	CodeNotFound   = "NOT_FOUND"        // no captions / no videos for a unit
	CodeInvalidArg = "INVALID_ARGUMENT" // bad or missing request fields
	CodeTransport  = "TRANSPORT_ERROR"  // provider or network failure
	CodeExternal   = "EXTERNAL_ERROR"   // yt-dlp/ffmpeg non-zero exit
	CodeCancelled  = "CANCELLED"        // cooperative stop requested
)

// Code extracts the error code from an error, or CodeInternal when the
// error is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return Code(err) == CodeNotFound
}

// IsCancelled reports whether err carries CodeCancelled.
func IsCancelled(err error) bool {
	return Code(err) == CodeCancelled
}
