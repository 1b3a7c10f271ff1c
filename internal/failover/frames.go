// Package failover implements the Failover Engine (C7): the per-request
// loop that selects an upstream, streams or completes against it, and
// transparently retries another upstream on a failure that happened
// before the response committed (§4.7).
package failover

// MetadataFrame is the optional frame emitted once, just before the first
// chunk, naming the upstream the request committed to (§6).
type MetadataFrame struct {
	Provider    string
	LatencyMS   int64
	Circuit     string
	HealthScore int // 0..100
	RequestID   string
}

// Sink receives the output of one request. The gateway HTTP layer adapts a
// Sink to real SSE writes or to a buffered non-streaming response; tests
// use a recording fake.
type Sink interface {
	// Metadata is called at most once, before the first Chunk call.
	Metadata(MetadataFrame)
	// Chunk is called once per non-empty text chunk, in order.
	Chunk(text string)
	// Error is called at most once, only when the request ends with no
	// chunk ever committed (§6 error frame).
	Error(message string)
	// Done is always called exactly once, last.
	Done()
}
