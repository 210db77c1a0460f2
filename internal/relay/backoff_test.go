package relay_test

import (
	"testing"
	"time"

	"ghostchat/internal/relay"
)

func TestBackoffSchedule(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	if len(want) != relay.MaxReconnectAttempts {
		t.Fatalf("schedule covers %d attempts, limit is %d", len(want), relay.MaxReconnectAttempts)
	}
	for i, w := range want {
		if got := relay.BackoffDelay(i + 1); got != w {
			t.Errorf("attempt %d: want %v, got %v", i+1, w, got)
		}
	}
}

func TestBackoffDelayClampsBadInput(t *testing.T) {
	if got := relay.BackoffDelay(0); got != time.Second {
		t.Errorf("attempt 0: want 1s, got %v", got)
	}
	if got := relay.BackoffDelay(100); got != 30*time.Second {
		t.Errorf("attempt 100: want 30s, got %v", got)
	}
}
