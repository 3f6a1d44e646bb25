package errors

import (
	stderrors "errors"
	"net/http"
)

// FromError converts any error to an AppError.
// AppErrors are returned as-is, database errors map to DATABASE_ERROR and
// everything else to a generic INTERNAL_ERROR. The cause is kept in Err and
// never put into the message shown to clients.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if IsDatabaseError(err) {
		return &AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       "DATABASE_ERROR",
			Message:    "The guestbook is temporarily unavailable",
			Err:        err,
		}
	}

	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		Err:        err,
	}
}

// GetStatusCode extracts the HTTP status code from an error, 500 if unknown
func GetStatusCode(err error) int {
	return FromError(err).StatusCode
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Code
}
