package health

import (
	"sync"
	"time"
)

// Metrics is the per-upstream counters, latency accumulator, and last-error
// memory described in §3/§4.2 (C2). All mutation goes through the exported
// methods so a reader never observes a partially-applied update.
type Metrics struct {
	mu sync.Mutex

	totalRequests   int64
	successCount    int64
	failCount       int64
	totalLatencyMS  int64
	lastErrorMsg    string
	lastErrorAt     time.Time
	hasLastError    bool
}

// Snapshot is a read-only copy of a Metrics value, used by the health
// scorer so scoring never holds the Metrics lock longer than a copy.
type Snapshot struct {
	TotalRequests  int64
	SuccessCount   int64
	FailCount      int64
	TotalLatencyMS int64
	LastErrorMsg   string
	LastErrorAt    time.Time
	HasLastError   bool
}

// BeginAttempt records the start of an attempt: total_requests += 1 (§4.2).
func (m *Metrics) BeginAttempt() {
	m.mu.Lock()
	m.totalRequests++
	m.mu.Unlock()
}

// RecordSuccess records a successful attempt: success_count += 1 and the
// attempt's wall-clock duration is added to total_latency_ms (§4.2).
func (m *Metrics) RecordSuccess(duration time.Duration) {
	m.mu.Lock()
	m.successCount++
	m.totalLatencyMS += duration.Milliseconds()
	m.mu.Unlock()
}

// RecordFailure records a failed attempt: fail_count += 1, the duration is
// added to total_latency_ms, and last_error_message/timestamp are updated (§4.2).
func (m *Metrics) RecordFailure(duration time.Duration, now time.Time, errMsg string) {
	m.mu.Lock()
	m.failCount++
	m.totalLatencyMS += duration.Milliseconds()
	m.lastErrorMsg = errMsg
	m.lastErrorAt = now
	m.hasLastError = true
	m.mu.Unlock()
}

// Snapshot returns a consistent point-in-time copy of the metrics.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		TotalRequests:  m.totalRequests,
		SuccessCount:   m.successCount,
		FailCount:      m.failCount,
		TotalLatencyMS: m.totalLatencyMS,
		LastErrorMsg:   m.lastErrorMsg,
		LastErrorAt:    m.lastErrorAt,
		HasLastError:   m.hasLastError,
	}
}
