package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFault_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("row 3: %w", NewFault(FaultNotFound, "page missing", nil))

	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected wrapped fault to match ErrNotFound")
	}
	if errors.Is(err, ErrLayout) {
		t.Error("NotFound fault should not match ErrLayout")
	}

	kind, ok := KindOf(err)
	if !ok || kind != FaultNotFound {
		t.Errorf("Expected kind NOT_FOUND, got %q (%v)", kind, ok)
	}
}

func TestTransient_Retry(t *testing.T) {
	if f := Transient("fetch", errors.New("connection reset")); !f.Retryable() {
		t.Error("Network failure should be retryable")
	}
	if f := Transient("fetch", context.Canceled); f.Retryable() {
		t.Error("Cancellation should not be retryable")
	}
}

func TestFault_ErrorMessage(t *testing.T) {
	f := NewFault(FaultMalformed, "thc_total", errors.New("bad"))
	if f.Error() != "MALFORMED_VALUE: thc_total: bad" {
		t.Errorf("Unexpected message %q", f.Error())
	}
}
