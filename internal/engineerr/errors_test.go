package engineerr

import (
	"errors"
	"testing"
)

func TestReferenceErrorKind(t *testing.T) {
	err := Reference("expr.InputRef", "input \"y\" not found")
	if !Is(err, KindReference) {
		t.Fatalf("expected reference kind, got %q (%v)", KindOf(err), err)
	}
}

func TestConcurrencyWrapsCause(t *testing.T) {
	cause := errors.New("conflict")
	err := Concurrency("store.CompleteTask", cause)
	if !Is(err, KindConcurrency) {
		t.Fatalf("expected concurrency kind, got %q", KindOf(err))
	}
	if !errors.Is(err, err) {
		t.Fatalf("errors.Is should match itself")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error via errors.As")
	}
	if e.Unwrap() == nil {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestKindOfUnrelatedError(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("expected empty kind for non-engineerr error")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(KindInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) must return nil")
	}
}
