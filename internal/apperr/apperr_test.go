package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_Message(t *testing.T) {
	err := NewValidation("approve_prescription", "confirmed_safety_review", "safety review must be confirmed")
	if !strings.Contains(err.Error(), "confirmed_safety_review") {
		t.Errorf("expected field in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "approve_prescription") {
		t.Errorf("expected operation in message, got %q", err.Error())
	}
}

func TestValidationError_As(t *testing.T) {
	var target *ValidationError
	wrapped := fmt.Errorf("handler: %w", NewValidation("op", "field", "msg"))
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed to unwrap ValidationError")
	}
	if target.Field != "field" {
		t.Errorf("expected field %q, got %q", "field", target.Field)
	}
}

func TestSafetyBlockError_DefaultReason(t *testing.T) {
	err := &SafetyBlockError{}
	if err.Error() != "content blocked by safety filters" {
		t.Errorf("unexpected default message: %q", err.Error())
	}
	err = NewSafetyBlock("cannot approve blocked prescription")
	if err.Error() != "cannot approve blocked prescription" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestKindPredicates(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", NewSafetyBlock("blocked"))
	if !IsSafetyBlock(wrapped) {
		t.Error("IsSafetyBlock failed on wrapped error")
	}
	if IsSafetyBlock(errors.New("other")) {
		t.Error("IsSafetyBlock matched unrelated error")
	}
	if !IsValidation(NewValidation("op", "f", "m")) {
		t.Error("IsValidation failed")
	}
	if !IsNotFound(fmt.Errorf("x: %w", NewNotFound("Receipt", "id"))) {
		t.Error("IsNotFound failed on wrapped error")
	}
}

func TestResourceNotFoundError_Message(t *testing.T) {
	err := NewNotFound("Prescription", "abc-123")
	if err.Error() != `Prescription "abc-123" not found` {
		t.Errorf("unexpected message: %q", err.Error())
	}
	err = NewNotFound("Receipt", "")
	if err.Error() != "Receipt not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
