package cipher

import "time"

// SetNow overrides the engine clock in tests.
func (e *Engine) SetNow(now func() time.Time) { e.now = now }
