package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := Validation("contractor_name", "field is required")
	wrapped := fmt.Errorf("submitting step: %w", base)

	if !IsValidation(wrapped) {
		t.Error("Expected wrapped error to be a validation error")
	}
	if IsNotFound(wrapped) {
		t.Error("Expected wrapped error not to be a not-found error")
	}

	var appErr *Error
	if !errors.As(wrapped, &appErr) {
		t.Fatal("Expected errors.As to find *Error")
	}
	if appErr.Field != "contractor_name" {
		t.Errorf("Expected field contractor_name, got %s", appErr.Field)
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := IO("failed to save document", cause)

	if err.Error() != "failed to save document: disk full" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
	if err.Code() != "IO_ERROR" {
		t.Errorf("Expected IO_ERROR, got %s", err.Code())
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("Expected empty kind for plain error")
	}
	if KindOf(nil) != "" {
		t.Error("Expected empty kind for nil")
	}
}

func TestCodes(t *testing.T) {
	tests := []struct {
		err      *Error
		expected string
	}{
		{Validation("x", "bad"), "VALIDATION_ERROR"},
		{NotFound("missing"), "NOT_FOUND"},
		{Conflict("busy"), "CONFLICT"},
		{Forbidden("nope"), "FORBIDDEN"},
		{New("other", "x", nil), "UNKNOWN_ERROR"},
	}
	for _, tt := range tests {
		if tt.err.Code() != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, tt.err.Code())
		}
	}
}
