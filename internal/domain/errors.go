package domain

import (
	"errors"
	"net/http"
)

// Code classifies an AppError. Each code maps to one HTTP status.
type Code int

// Error codes carried by AppError.
const (
	CodeNotFound Code = iota + 1
	CodeValidation
	CodeRateLimited
	CodeInternal
	CodeForbidden
	CodeTimeout
)

var codeStatus = map[Code]int{
	CodeNotFound:    http.StatusNotFound,
	CodeValidation:  http.StatusBadRequest,
	CodeRateLimited: http.StatusTooManyRequests,
	CodeInternal:    http.StatusInternalServerError,
	CodeForbidden:   http.StatusForbidden,
	CodeTimeout:     http.StatusRequestTimeout,
}

// Status returns the HTTP status of c; unknown codes are 500.
func (c Code) Status() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// String returns the status text of c, e.g. "Not Found".
func (c Code) String() string {
	return http.StatusText(c.Status())
}

// AppError is an error whose message is safe to show to clients. The cause,
// if any, is only for logs.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError with the same code, so errors.Is(err, ErrTimeout)
// holds for every timeout regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	return errors.As(target, &t) && t.Code == e.Code
}

// Sentinel errors, one per code.
var (
	ErrNotFound    = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation  = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited = &AppError{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal    = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrForbidden   = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrTimeout     = &AppError{Code: CodeTimeout, Message: "request timeout"}
)

// NewAppError creates an AppError.
func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) (Code, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeNotFound
}

// IsTimeout reports whether err carries CodeTimeout.
func IsTimeout(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeTimeout
}

// HTTPStatusCode maps err to an HTTP status. Errors without an AppError in
// their chain map to 500.
func HTTPStatusCode(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	return code.Status()
}
