package errs

import (
	"net/http"
)

func newError(status int, code, message string) *HTTPError {
	if code == "" {
		code = MakeUpperCaseWithUnderscores(http.StatusText(status))
	}
	return &HTTPError{Code: code, Message: message, Status: status}
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return newError(http.StatusUnauthorized, "", message)
}

// NewForbiddenError creates a 403 Forbidden HTTPError.
func NewForbiddenError(message string) *HTTPError {
	return newError(http.StatusForbidden, "", message)
}

// NewBadRequestError creates a 400 Bad Request HTTPError.  code defaults to
// BAD_REQUEST when empty.
func NewBadRequestError(message, code string, errors []FieldError) *HTTPError {
	e := newError(http.StatusBadRequest, code, message)
	e.Errors = errors
	return e
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return newError(http.StatusNotFound, "", message)
}

// NewConflictError creates a 409 Conflict HTTPError with a specific code.
func NewConflictError(message, code string) *HTTPError {
	return newError(http.StatusConflict, code, message)
}

// NewTooManyRequestsError creates a 429 HTTPError.
func NewTooManyRequestsError(message string) *HTTPError {
	return newError(http.StatusTooManyRequests, "", message)
}

// NewServiceUnavailableError creates a 503 HTTPError.
func NewServiceUnavailableError(message, code string) *HTTPError {
	return newError(http.StatusServiceUnavailable, code, message)
}

// NewInternalServerError creates a generic 500.  The message never carries
// internal details.
func NewInternalServerError() *HTTPError {
	return newError(http.StatusInternalServerError, "", http.StatusText(http.StatusInternalServerError))
}
