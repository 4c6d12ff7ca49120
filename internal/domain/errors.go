package domain

import (
	"errors"
	"net/http"
)

// Code classifies an AppError.
type Code int

const (
	CodeNotFound Code = iota + 1
	CodeAlreadyExists
	CodeValidation
	CodeInternal
	CodeConflict
)

var codeStatus = map[Code]int{
	CodeNotFound:      http.StatusNotFound,
	CodeAlreadyExists: http.StatusConflict,
	CodeValidation:    http.StatusBadRequest,
	CodeInternal:      http.StatusInternalServerError,
	CodeConflict:      http.StatusConflict,
}

// Status is the HTTP status for c. Unknown codes are 500.
func (c Code) Status() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// UserFacing reports whether messages carrying c may be shown to the user.
func (c Code) UserFacing() bool {
	return c.Status() < http.StatusInternalServerError
}

// AppError is a failure the service layer reports to handlers. Message is
// safe to show for user-facing codes; Err keeps the cause for logs.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// ErrNotFound is returned for a missing row. Match it with IsNotFound, which
// also accepts other AppErrors carrying CodeNotFound.
var ErrNotFound = NewAppError(CodeNotFound, "not found", nil)

// CodeOf returns the code of the first AppError in err's chain, or 0.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsNotFound(err error) bool      { return CodeOf(err) == CodeNotFound }
func IsAlreadyExists(err error) bool { return CodeOf(err) == CodeAlreadyExists }
func IsValidation(err error) bool    { return CodeOf(err) == CodeValidation }
func IsInternal(err error) bool      { return CodeOf(err) == CodeInternal }
func IsConflict(err error) bool      { return CodeOf(err) == CodeConflict }

// HTTPStatusCode maps err to a response status. Errors that are not
// AppErrors are 500.
func HTTPStatusCode(err error) int {
	return CodeOf(err).Status()
}
