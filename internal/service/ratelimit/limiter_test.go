package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewWithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if !l.Allow("chat", 3, 1) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("chat", 3, 1) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("other", 3, 1) {
		t.Fatal("keys must not share a bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("chat", 3, 1) {
		t.Fatal("one token should have refilled")
	}
	if l.Allow("chat", 3, 1) {
		t.Fatal("only half a token left")
	}

	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("chat", 3, 1) {
			t.Fatalf("refill must cap at capacity, call %d", i)
		}
	}
	if l.Allow("chat", 3, 1) {
		t.Fatal("refill exceeded capacity")
	}
}
