package router_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/pool"
	"github.com/nexus-gateway/nexus/internal/router"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

func buildPool(t *testing.T, n int) *pool.Pool {
	t.Helper()
	var tracked []*pool.Tracked
	for i := 0; i < n; i++ {
		id := pool.Identity{Kind: health.ProviderGroq, InstanceID: string(rune('1' + i))}
		tracked = append(tracked, pool.NewTracked(id, &upstream.MockAdapter{}, health.BreakerConfig{}, nil))
	}
	return pool.New(tracked, health.DefaultPriorityTable())
}

func TestSelectReturnsNoneWhenAllExcluded(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 2)
	s := router.New(p, health.ScoreConfig{})

	_, _, ok := s.Select(map[int]bool{0: true, 1: true}, router.ModeSmart)
	assert.False(t, ok)
}

func TestSelectReturnsSoleCandidate(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 1)
	s := router.New(p, health.ScoreConfig{})

	idx, tracked, ok := s.Select(map[int]bool{}, router.ModeSmart)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.NotNil(t, tracked)
}

func TestSelectExcludesDisabledUpstream(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 2)
	p.At(0).SetEnabled(false)
	s := router.New(p, health.ScoreConfig{})

	for i := 0; i < 10; i++ {
		idx, _, ok := s.Select(map[int]bool{}, router.ModeSmart)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	}
}

func TestRoundRobinVisitsEveryCandidateBeforeRepeating(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 3)
	s := router.New(p, health.ScoreConfig{})

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		idx, _, ok := s.Select(map[int]bool{}, router.ModeRoundRobin)
		require.True(t, ok)
		assert.False(t, seen[idx], "round robin repeated index %d within one cycle", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, 3)

	idx, _, ok := s.Select(map[int]bool{}, router.ModeRoundRobin)
	require.True(t, ok)
	assert.True(t, seen[idx], "fourth pick should restart the cycle")
}

func TestFastestPicksHighestScoreBreakingTiesByIndex(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 3)
	s := router.New(p, health.ScoreConfig{})

	// All three start with identical new-upstream scores (0.5 + bonus); the
	// tie must break to the lowest original index.
	idx, _, ok := s.Select(map[int]bool{}, router.ModeFastest)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestSmartModeNeverSelectsExcludedIndex(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 4)
	s := router.New(p, health.ScoreConfig{})

	tried := map[int]bool{0: true, 2: true}
	for i := 0; i < 20; i++ {
		idx, _, ok := s.Select(tried, router.ModeSmart)
		require.True(t, ok)
		assert.False(t, tried[idx])
	}
}

type fakeScoreConfigSource struct {
	cfg health.ScoreConfig
}

func (f fakeScoreConfigSource) ScoreConfig() health.ScoreConfig {
	return f.cfg
}

func TestScoreConfigSourceOverridesStaticTunables(t *testing.T) {
	t.Parallel()
	p := buildPool(t, 1)
	s := router.New(p, health.ScoreConfig{})
	tracked := p.At(0)
	for i := 0; i < 5; i++ {
		tracked.Metrics.BeginAttempt()
		tracked.Metrics.RecordSuccess(10 * time.Millisecond)
	}

	before := s.Score(tracked)

	s.SetScoreConfigSource(fakeScoreConfigSource{cfg: health.ScoreConfig{
		MinRequestsForScoring: 100, // more than the 5 requests just recorded
	}})
	after := s.Score(tracked)

	assert.NotEqual(t, before, after, "installing a live score config should change which branch Score takes")
	assert.Equal(t, 0.6, after, "below MinRequestsForScoring, score is the flat 0.5+bonus default (groq bonus 0.10)")
}

func TestParseModeFallsBackToSmart(t *testing.T) {
	t.Parallel()
	assert.Equal(t, router.ModeSmart, router.ParseMode(""))
	assert.Equal(t, router.ModeSmart, router.ParseMode("bogus"))
	assert.Equal(t, router.ModeFastest, router.ParseMode("fastest"))
	assert.Equal(t, router.ModeRoundRobin, router.ParseMode("round_robin"))
	assert.Equal(t, router.ModeRoundRobin, router.ParseMode("round-robin"))
}
