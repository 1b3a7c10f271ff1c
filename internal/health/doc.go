// Package health tracks per-upstream metrics, circuit-breaker state, and
// derives a scalar health score used by the router's selection strategies.
//
// The package implements:
//   - Metrics: request/latency/error counters (C2)
//   - Breaker: a three-state CLOSED/OPEN/HALF_OPEN machine (C3)
//   - Score: a pure function from a snapshot to a health score in [0,1] (C5)
//
// Unlike a generic circuit breaker library, Breaker's CLOSED state decrements
// its failure counter on success rather than resetting it, and exposes
// half-open attempt accounting as a first-class, externally observable
// invariant — both are required by the routing contract this package serves,
// not by general-purpose breaker semantics.
package health
