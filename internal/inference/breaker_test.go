package inference

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Call(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: expected pass-through failure, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, state=%s", b.State())
	}

	called := false
	err := b.Call(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("open breaker must not invoke the function")
	}
}

func TestBreaker_HalfOpenProbeSuccessCloses(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker(3, time.Minute)
	b.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = b.Call(func() error { return errBoom })
	}
	now = now.Add(61 * time.Second)

	if err := b.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe should pass through: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, state=%s", b.State())
	}
	// Failure counter was reset: two failures must not reopen.
	_ = b.Call(func() error { return errBoom })
	_ = b.Call(func() error { return errBoom })
	if b.State() != StateClosed {
		t.Error("breaker reopened before reaching the threshold again")
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b := NewBreaker(3, time.Minute)
	b.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = b.Call(func() error { return errBoom })
	}
	now = now.Add(61 * time.Second)

	if err := b.Call(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("probe should pass through the failure, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected reopen after failed probe, state=%s", b.State())
	}

	// Reset timer restarted: still short-circuiting before a full timeout.
	now = now.Add(30 * time.Second)
	if err := b.Call(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen inside restarted window, got %v", err)
	}
}
