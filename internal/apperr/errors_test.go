package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorsIsMatchesKindAgainstSentinel(t *testing.T) {
	err := New("create_chunk", KindDimensionMismatch, nil)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatal("expected errors.Is to match the sentinel for the same kind")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is to reject a different kind")
	}
}

func TestErrorsAsUnwrapsServiceError(t *testing.T) {
	err := New("search", KindNotTrained, nil)
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to find the ServiceError")
	}
	if se.Kind != KindNotTrained {
		t.Fatalf("expected KindNotTrained, got %v", se.Kind)
	}
}

func TestWrappedUnderlyingErrorIsPreserved(t *testing.T) {
	underlying := errors.New("boom")
	err := New("rebuild_index", KindNoIndex, underlying)
	if !errors.Is(err, underlying) {
		t.Fatal("expected errors.Is to see through to the wrapped error")
	}
}

func TestKindOfExtractsKind(t *testing.T) {
	err := New("update_chunk", KindInvalidUpdate, nil)
	kind, ok := KindOf(err)
	if !ok || kind != KindInvalidUpdate {
		t.Fatalf("expected (KindInvalidUpdate, true), got (%v, %v)", kind, ok)
	}
}

func TestKindOfFalseForPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	if ok {
		t.Fatal("expected ok=false for a non-ServiceError")
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := New("delete_document", KindNotFound, nil)
	wrapped := fmt.Errorf("delete_document: %w", err)
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindNotFound {
		t.Fatalf("expected (KindNotFound, true), got (%v, %v)", kind, ok)
	}
}

func TestErrorMessageIncludesOpAndKind(t *testing.T) {
	err := New("create_library", KindUnsupportedIndex, nil)
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}
	if !strings.Contains(msg, "create_library") || !strings.Contains(msg, string(KindUnsupportedIndex)) {
		t.Fatalf("expected message to include op and kind, got %q", msg)
	}
}
