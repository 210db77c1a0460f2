package relay

import "time"

const (
	// MaxReconnectAttempts is how many reconnect tries are made before
	// the session is declared lost.
	MaxReconnectAttempts = 10

	backoffBase = time.Second
	backoffCap  = 30 * time.Second
)

// BackoffDelay returns the wait before reconnect attempt n (1-based):
// 1s, 2s, 4s, ... capped at 30s.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		// 2^5 seconds already exceeds the cap.
		return backoffCap
	}
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		return backoffCap
	}
	return d
}
