package health

import "errors"

// ErrCircuitOpen is the sentinel for an attempt refused by an open breaker.
// Breaker itself reports availability through IsAvailable and does not
// return this error.
var ErrCircuitOpen = errors.New("health: circuit breaker is open")
