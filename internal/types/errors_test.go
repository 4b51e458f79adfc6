package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorImplementsError(t *testing.T) {
	var _ error = (*AppError)(nil)
}

// TestAppErrorErrorFormat verifies the Error() method produces "code: message".
func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeNotFoundCustomer,
		Message: "no customer matches the email",
	}

	expected := "not_found_customer: no customer matches the email"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("dial tcp: connection refused")
	appErr := NewAppError(ErrCodeUpstreamUnavailable, "provider unavailable", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() returned unexpected error: got %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error through AppError")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeSignatureInvalid, "invalid signature", nil)
	wrappedErr := fmt.Errorf("webhook rejected: %w", appErr)

	var target *AppError
	if !errors.As(wrappedErr, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeSignatureInvalid {
		t.Errorf("extracted Code = %q, want %q", target.Code, ErrCodeSignatureInvalid)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidEmail, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeSignatureInvalid, http.StatusForbidden},
		{ErrCodeNotFoundCustomer, http.StatusNotFound},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeCheckoutUnavailable, http.StatusBadGateway},
		{ErrCodeSessionCreationFailed, http.StatusBadGateway},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorCodeIsUpstreamIncomplete(t *testing.T) {
	for _, c := range []ErrorCode{ErrCodeCheckoutUnavailable, ErrCodeSessionCreationFailed} {
		if !c.IsUpstreamIncomplete() {
			t.Errorf("%s should be in the upstream-incomplete class", c)
		}
	}
	for _, c := range []ErrorCode{ErrCodeUpstreamUnavailable, ErrCodeNotFoundCustomer, ErrCodeSignatureInvalid} {
		if c.IsUpstreamIncomplete() {
			t.Errorf("%s should not be in the upstream-incomplete class", c)
		}
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewAppError(ErrCodeNotFoundCustomer, "missing", nil))
	if got := CodeOf(wrapped); got != ErrCodeNotFoundCustomer {
		t.Errorf("CodeOf() = %q, want %q", got, ErrCodeNotFoundCustomer)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}
