package server

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinWindow(t *testing.T) {
	limiter := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("fourth request in window should be rejected")
	}

	// Other keys have their own window.
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("independent key should be allowed")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := newRateLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("k") {
		t.Fatalf("first request should pass")
	}
	if limiter.Allow("k") {
		t.Fatalf("second request should be limited")
	}

	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow("k") {
		t.Fatalf("window expiry should reset the counter")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	limiter := newRateLimiter(10, time.Minute)
	if limiter.Allow("") {
		t.Fatalf("empty key must be rejected")
	}
}
