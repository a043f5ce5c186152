package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{nil, http.StatusOK},
		{ErrValidation, http.StatusBadRequest},
		{ErrPasswordNotSet, http.StatusBadRequest},
		{ErrResetInvalidOrExpired, http.StatusBadRequest},
		{ErrResetTokenInvalid, http.StatusBadRequest},
		{ErrEmailExists, http.StatusConflict},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrTokenReuse, http.StatusUnauthorized},
		{ErrSessionInvalid, http.StatusUnauthorized},
		{ErrIncorrectPassword, http.StatusUnauthorized},
		{ErrSelfDeletion, http.StatusForbidden},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{WrapError(ErrInternal, errors.New("db down")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ToHTTPStatus(tt.err); got != tt.expected {
			t.Errorf("ToHTTPStatus(%v) = %d, expected %d", tt.err, got, tt.expected)
		}
	}
}

func TestWrapError_MatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("login: %w", WrapError(ErrInternal, cause))

	if !errors.Is(wrapped, ErrInternal) {
		t.Error("Expected wrapped error to match ErrInternal")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected wrapped error to match the cause")
	}
	if errors.Is(wrapped, ErrUnauthorized) {
		t.Error("Expected wrapped error not to match ErrUnauthorized")
	}
	if errors.Is(ErrInvalidToken, ErrResetTokenInvalid) {
		t.Error("Expected different codes with equal messages to differ")
	}
}

func TestGetErrorMessage_HidesInternalDetail(t *testing.T) {
	err := WrapError(ErrInternal, errors.New("pq: relation users does not exist"))

	if got := GetErrorMessage(err); got != "Internal server error" {
		t.Errorf("Expected generic message, got %q", got)
	}
	if got := GetErrorMessage(errors.New("raw")); got != "Internal server error" {
		t.Errorf("Expected generic message for foreign error, got %q", got)
	}
	if got := GetErrorCode(errors.New("raw")); got != "INTERNAL_ERROR" {
		t.Errorf("Expected INTERNAL_ERROR, got %q", got)
	}
	if got := GetErrorCode(ErrTokenReuse); got != "TOKEN_REUSE" {
		t.Errorf("Expected TOKEN_REUSE, got %q", got)
	}
}
