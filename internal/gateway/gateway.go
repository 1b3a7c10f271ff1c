// Package gateway implements the HTTP framing, SSE encoding, routing,
// authentication, and CORS glue named but not specified by §6 — the
// external interface wrapped around the routing/resilience core
// (internal/failover, internal/pool, internal/router).
package gateway
