package web

import (
	"testing"
	"time"
)

func TestRateLimiter_PerClient(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if wait := rl.reserve("10.0.0.1", now); wait != 0 {
			t.Fatalf("request %d: wait = %v, want 0", i, wait)
		}
	}

	wait := rl.reserve("10.0.0.1", now)
	if wait <= 0 || wait > 20*time.Second {
		t.Errorf("over-limit wait = %v, want (0, 20s]", wait)
	}

	if wait := rl.reserve("10.0.0.2", now); wait != 0 {
		t.Errorf("other client wait = %v, want 0", wait)
	}

	// a rejected request does not consume a token
	if wait := rl.reserve("10.0.0.1", now.Add(20*time.Second)); wait != 0 {
		t.Errorf("after refill wait = %v, want 0", wait)
	}
}
