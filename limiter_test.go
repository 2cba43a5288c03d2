package inkpress

import (
	"testing"
	"time"
)

func TestLoginLimiterBlocksAfterMaxFailures(t *testing.T) {
	limiter := NewLoginLimiter(2, 200*time.Millisecond)
	ip := "203.0.113.10"

	if !limiter.Check(ip) {
		t.Fatalf("expected fresh IP to be allowed")
	}
	limiter.Record(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected IP with one failure to be allowed")
	}
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected IP with two failures to be blocked")
	}
}

func TestLoginLimiterCheckDoesNotCount(t *testing.T) {
	limiter := NewLoginLimiter(1, 200*time.Millisecond)
	ip := "203.0.113.15"

	for i := 0; i < 5; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("check %d should not count as a failure", i)
		}
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLoginLimiter(1, 150*time.Millisecond)
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected IP at the limit to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected IP to be allowed after the window expired")
	}
}

func TestLoginLimiterStopIsSafe(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Minute)
	limiter.Record("203.0.113.40")

	limiter.Stop()
	limiter.Stop() // idempotent

	// Check and Record prune inline, so the limiter stays correct after Stop.
	if limiter.Check("203.0.113.40") {
		t.Fatalf("expected recorded failure to still count after Stop")
	}
	if !limiter.Check("203.0.113.41") {
		t.Fatalf("expected a stopped limiter to keep serving other IPs")
	}
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Minute)

	limiter.Record("203.0.113.30")
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected the failing IP to be blocked")
	}
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected an unrelated IP to be allowed")
	}
}
