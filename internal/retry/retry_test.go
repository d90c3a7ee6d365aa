package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyErr struct{ retry bool }

func (e flakyErr) Error() string   { return "flaky" }
func (e flakyErr) Retryable() bool { return e.retry }

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return flakyErr{retry: true}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return flakyErr{retry: false}
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Permanent error should not be retried, got %d calls", calls)
	}
}

func TestDo_PlainErrorsAreNotRetried(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("boom")
	})
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustedAttemptsWrapLastError(t *testing.T) {
	err := Do(context.Background(), fastConfig(), func() error {
		return flakyErr{retry: true}
	})

	var fe flakyErr
	if !errors.As(err, &fe) {
		t.Errorf("Expected last error in chain, got %v", err)
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2}

	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := calculateBackoff(1, cfg); got != 2*time.Second {
		t.Errorf("attempt 1: got %v", got)
	}
	if got := calculateBackoff(5, cfg); got != 3*time.Second {
		t.Errorf("attempt 5 should be capped, got %v", got)
	}
}
