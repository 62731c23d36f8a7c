package errors

import (
	"errors"
	"testing"
)

type customError struct {
	Msg string
}

func (e customError) Error() string { return e.Msg }

func TestNew(t *testing.T) {
	err := New("test error")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("expected 'test error', got '%s'", err.Error())
	}
}

func TestWrap(t *testing.T) {
	baseErr := errors.New("base error")

	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(baseErr, "wrapped")
		if wrapped == nil {
			t.Fatal("expected wrapped error, got nil")
		}
		expected := "wrapped: base error"
		if wrapped.Error() != expected {
			t.Errorf("expected '%s', got '%s'", expected, wrapped.Error())
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("expected wrapped error to wrap baseErr")
		}
	})

	t.Run("wrap nil error", func(t *testing.T) {
		wrapped := Wrap(nil, "wrapped")
		if wrapped != nil {
			t.Errorf("expected nil, got %v", wrapped)
		}
	})

	t.Run("wrap sentinel keeps identity", func(t *testing.T) {
		wrapped := Wrap(ErrAuditWrite, "delegation check")
		if !Is(wrapped, ErrAuditWrite) {
			t.Error("expected wrapped error to match ErrAuditWrite")
		}
	})
}

func TestIs(t *testing.T) {
	wrapped := Wrap(ErrUnavailable, "policy store")
	if !Is(wrapped, ErrUnavailable) {
		t.Error("expected Is to match ErrUnavailable")
	}
	if Is(wrapped, ErrNotFound) {
		t.Error("expected Is to not match ErrNotFound")
	}
}

func TestAs(t *testing.T) {
	err := Wrap(customError{Msg: "custom"}, "outer")
	var target customError
	if !As(err, &target) {
		t.Fatal("expected As to find customError")
	}
	if target.Msg != "custom" {
		t.Errorf("expected 'custom', got '%s'", target.Msg)
	}
}
