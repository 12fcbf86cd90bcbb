package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrSessionActive,
			expected: "A liveness session is already using the camera",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	if got := ErrUserIDRequired.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("connection refused")
	newErr := ErrSubmissionFailed.WithError(underlying)

	if newErr.Code != ErrSubmissionFailed.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrSubmissionFailed.Code)
	}

	if newErr.StatusCode != ErrSubmissionFailed.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrSubmissionFailed.StatusCode)
	}

	if newErr.Err != underlying {
		t.Errorf("Err = %v, want %v", newErr.Err, underlying)
	}

	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
}

func TestAppError_IsMatchesCatalogue(t *testing.T) {
	err := fmt.Errorf("start session: %w", ErrCameraUnavailable.WithError(errors.New("device busy")))

	if !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("errors.Is should match the catalogue entry through WithError")
	}

	if errors.Is(err, ErrDetectorUnavailable) {
		t.Errorf("errors.Is should not match a different code")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As should match AppError")
	}

	if appErr.Code != "CAMERA_UNAVAILABLE" {
		t.Errorf("Code = %v, want CAMERA_UNAVAILABLE", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrRateLimitExceeded, "RATE_LIMIT_EXCEEDED", 429},
		{ErrValidationFailed, "VALIDATION_FAILED", 422},
		{ErrUserIDRequired, "USER_ID_REQUIRED", 422},
		{ErrSessionActive, "SESSION_ACTIVE", 409},
		{ErrCameraUnavailable, "CAMERA_UNAVAILABLE", 503},
		{ErrDetectorUnavailable, "DETECTOR_UNAVAILABLE", 503},
		{ErrSubmissionFailed, "SUBMISSION_FAILED", 502},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
