package common

import "errors"

// AppError carries the HTTP status and stable error code a failure should be
// rendered with, so repositories can decide the shape of their own errors
// without the handler keeping a mapping table.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError wraps err with a code, message and HTTP status.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError reports whether err carries rendering information.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
