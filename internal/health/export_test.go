package health

import "time"

// SetClock overrides the breaker's clock for deterministic tests.
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nowFn = now
}
