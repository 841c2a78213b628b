package cache

import (
	"testing"
	"time"
)

func TestSetGet_RoundTrip(t *testing.T) {
	c := New()
	c.Set("k", 42, time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit immediately after set")
	}
	if v.(int) != 42 {
		t.Errorf("got %v, want 42", v)
	}
}

func TestGet_MissAfterExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return now })

	c.Set("k", "v", 10*time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(11 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after ttl elapsed")
	}
	// Lazy eviction removed the entry entirely.
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry resurfaced")
	}
}

func TestSet_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(func() time.Time { return now })

	c.Set("k", 1, 0)
	now = now.Add(1000 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Error("zero-ttl entry expired")
	}
}

func TestSet_OverwriteRefreshes(t *testing.T) {
	c := New()
	c.Set("k", 1, time.Minute)
	c.Set("k", 2, time.Minute)

	v, _ := c.Get("k")
	if v.(int) != 2 {
		t.Errorf("got %v, want overwritten value 2", v)
	}
}
