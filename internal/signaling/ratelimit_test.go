package signaling

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinWindow(t *testing.T) {
	l := newAddressLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < rateLimit; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d blocked inside the window", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("attempt over the limit was allowed")
	}
	// Other addresses are unaffected.
	if !l.Allow("10.0.0.2") {
		t.Fatal("unrelated address blocked")
	}
}

func TestLimiterBlockExpires(t *testing.T) {
	l := newAddressLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i <= rateLimit; i++ {
		l.Allow("10.0.0.1")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("address not blocked after exceeding the limit")
	}

	// Still blocked just before the block expires.
	now = now.Add(rateBlockTime - time.Second)
	if l.Allow("10.0.0.1") {
		t.Fatal("block lifted early")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("block persisted past its duration")
	}
}

func TestLimiterWindowSlides(t *testing.T) {
	l := newAddressLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < rateLimit; i++ {
		l.Allow("10.0.0.1")
	}
	// A minute later the old attempts have aged out.
	now = now.Add(rateWindow + time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatal("aged-out attempts still counted")
	}
}
