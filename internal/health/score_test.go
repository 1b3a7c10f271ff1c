package health_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-gateway/nexus/internal/health"
)

func TestScoreOpenBreakerIsZero(t *testing.T) {
	t.Parallel()
	got := health.Score(health.Snapshot{}, health.BreakerSnapshot{State: health.StateOpen}, 0.15, health.ScoreConfig{}, time.Now())
	assert.Equal(t, 0.0, got)
}

func TestScoreHalfOpenIsPointOne(t *testing.T) {
	t.Parallel()
	got := health.Score(health.Snapshot{}, health.BreakerSnapshot{State: health.StateHalfOpen}, 0.15, health.ScoreConfig{}, time.Now())
	assert.InDelta(t, 0.1, got, 1e-9)
}

func TestScoreNewUpstreamStartsNearMiddleTintedByPriority(t *testing.T) {
	t.Parallel()
	snap := health.Snapshot{TotalRequests: 2}
	got := health.Score(snap, health.BreakerSnapshot{State: health.StateClosed}, 0.15, health.ScoreConfig{}, time.Now())
	assert.InDelta(t, 0.65, got, 1e-9)
}

func TestScorePureFunctionOfSnapshot(t *testing.T) {
	t.Parallel()
	now := time.Now()
	snap := health.Snapshot{TotalRequests: 10, SuccessCount: 8, TotalLatencyMS: 2000}
	breaker := health.BreakerSnapshot{State: health.StateClosed}

	a := health.Score(snap, breaker, 0.1, health.ScoreConfig{}, now)
	b := health.Score(snap, breaker, 0.1, health.ScoreConfig{}, now)
	assert.Equal(t, a, b)
}

func TestScoreRecentErrorPenaltyDecaysToZero(t *testing.T) {
	t.Parallel()
	now := time.Now()
	snap := health.Snapshot{
		TotalRequests:  10,
		SuccessCount:   8,
		TotalLatencyMS: 2000,
		HasLastError:   true,
		LastErrorAt:    now,
	}
	breaker := health.BreakerSnapshot{State: health.StateClosed}
	cfg := health.ScoreConfig{ErrorPenaltyDuration: 30 * time.Second}

	immediately := health.Score(snap, breaker, 0, cfg, now)
	afterDuration := health.Score(snap, breaker, 0, cfg, now.Add(31*time.Second))

	assert.Less(t, immediately, afterDuration)
}

func TestScoreClampedToUnitInterval(t *testing.T) {
	t.Parallel()
	snap := health.Snapshot{TotalRequests: 10, SuccessCount: 10}
	breaker := health.BreakerSnapshot{State: health.StateClosed}
	got := health.Score(snap, breaker, 0.15, health.ScoreConfig{}, time.Now())
	assert.LessOrEqual(t, got, 1.0)
	assert.GreaterOrEqual(t, got, 0.0)
}
