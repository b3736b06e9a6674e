package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidGeometry, "part %q: only %d points", "star", 2)

	if err.Code != ErrCodeInvalidGeometry {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeInvalidGeometry)
	}
	want := `part "star": only 2 points`
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
	if err.Cause != nil {
		t.Errorf("Cause should be nil, got %v", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	plain := New(ErrCodeCancelled, "job aborted")
	if plain.Error() != "CANCELLED: job aborted" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(ErrCodeStore, cause, "failed to persist job abc")
	if wrapped.Error() != "STORE_ERROR: failed to persist job abc: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeInternal, cause, "packing crashed")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if stderrors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodePlacementFailed, "part does not fit")

	if !Is(err, ErrCodePlacementFailed) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeTimeout) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodePlacementFailed) {
		t.Error("Is should not match plain errors")
	}

	// Code match survives fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodePlacementFailed) {
		t.Error("Is should unwrap to find the code")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "deadline hit")); got != ErrCodeTimeout {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeTimeout)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode for plain error = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "sheet dimensions must be positive")
	if got := UserMessage(err); got != "sheet dimensions must be positive" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := stderrors.New("something broke")
	if got := UserMessage(plain); got != "something broke" {
		t.Errorf("UserMessage for plain error = %q", got)
	}
}
