// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrUnavailable      = errors.New("dependency unavailable")
)

// AppError is an error that already knows how it should be rendered to a
// client. Err keeps the sentinel so errors.Is works across layers.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, "VALIDATION_ERROR")
}

func InvalidOperationError(message string) *AppError {
	return NewAppError(
		ErrInvalidOperation,
		message,
		http.StatusBadRequest,
		"INVALID_OPERATION",
	)
}

// DuplicateError reports a uniqueness violation. Clients treat it as a
// validation failure, hence 400 rather than 409.
func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusBadRequest,
		"DUPLICATE",
	)
}

// UnavailableError marks a failure of a backing store rather than of the
// caller's input.
func UnavailableError(message string) *AppError {
	if message == "" {
		message = "service temporarily unavailable"
	}
	return NewAppError(
		ErrUnavailable,
		message,
		http.StatusServiceUnavailable,
		"SERVICE_UNAVAILABLE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

// InvalidCredentialsError is returned by login. It is a 400 so that an
// unknown email and a wrong password look identical to the client.
func InvalidCredentialsError() *AppError {
	return NewAppError(
		ErrInvalidInput,
		"Invalid email or password",
		http.StatusBadRequest,
		"INVALID_CREDENTIALS",
	)
}
