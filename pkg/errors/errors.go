package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(code string, message string) *AppError {
	return NewError(http.StatusServiceUnavailable, code, message)
}

// DatabaseError reports a failure acquiring a connection, executing a
// statement, committing, or building the pool.
type DatabaseError struct {
	Op  string
	Err error
}

// NewDatabaseError wraps err with the operation that failed. A nil err yields nil.
func NewDatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if stderrors.As(err, &dbErr) {
		return err
	}
	return &DatabaseError{Op: op, Err: err}
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the driver or pool error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// IsDatabaseError reports whether err wraps a DatabaseError
func IsDatabaseError(err error) bool {
	var dbErr *DatabaseError
	return stderrors.As(err, &dbErr)
}
