package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on code so wrapped copies still compare equal to the sentinel.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Message == e.Message
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Validation errors
	ErrValidation            = NewDomainError("VALIDATION_ERROR", "Missing required fields")
	ErrUnknownRoleOrCompany  = NewDomainError("VALIDATION_ERROR", "Unknown role or company")
	ErrInvalidPassword       = NewDomainError("VALIDATION_ERROR", "Password must be at most 72 bytes")
	ErrPasswordNotSet        = NewDomainError("PASSWORD_NOT_SET", "User has no password set")
	ErrResetInvalidOrExpired = NewDomainError("RESET_INVALID_OR_EXPIRED", "Invalid or expired token")
	ErrResetTokenInvalid     = NewDomainError("RESET_TOKEN_INVALID", "Invalid token")

	// Conflict errors
	ErrEmailExists = NewDomainError("EMAIL_EXISTS", "Email already in use")

	// Authentication errors
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "Unauthorized")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "Invalid credentials")
	ErrInvalidToken       = NewDomainError("INVALID_TOKEN", "Invalid token")
	ErrMissingToken       = NewDomainError("MISSING_TOKEN", "No token")
	ErrSessionInvalid     = NewDomainError("SESSION_INVALID", "Session invalid")
	ErrTokenReuse         = NewDomainError("TOKEN_REUSE", "Token reuse detected")
	ErrIncorrectPassword  = NewDomainError("INCORRECT_PASSWORD", "Old password incorrect")

	// Authorization errors
	ErrForbidden    = NewDomainError("FORBIDDEN", "Access forbidden")
	ErrSelfDeletion = NewDomainError("SELF_DELETION", "You cannot delete your own account")

	// Not found errors
	ErrUserNotFound    = NewDomainError("USER_NOT_FOUND", "User not found")
	ErrSessionNotFound = NewDomainError("SESSION_NOT_FOUND", "Session not found")

	// System errors
	ErrInternal        = NewDomainError("INTERNAL_ERROR", "Internal server error")
	ErrTooManyRequests = NewDomainError("RATE_LIMITED", "Too many requests")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "VALIDATION_ERROR", "PASSWORD_NOT_SET", "RESET_INVALID_OR_EXPIRED", "RESET_TOKEN_INVALID":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN", "MISSING_TOKEN",
		"SESSION_INVALID", "TOKEN_REUSE", "INCORRECT_PASSWORD":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN", "SELF_DELETION":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND", "SESSION_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS":
		return http.StatusConflict

	// 429 Too Many Requests
	case "RATE_LIMITED":
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage returns the user-facing message. Anything that is not a
// domain error, and any internal error, collapses to the generic message so
// lower-layer detail never reaches a response body.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return ErrInternal.Message
}

// GetErrorCode returns the domain code, or INTERNAL_ERROR for foreign errors.
func GetErrorCode(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code
	}
	return ErrInternal.Code
}
