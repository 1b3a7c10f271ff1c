package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/pool"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

func newTracked(kind health.ProviderKind, id string) *pool.Tracked {
	return pool.NewTracked(pool.Identity{Kind: kind, InstanceID: id}, &upstream.MockAdapter{}, health.BreakerConfig{}, nil)
}

func TestPoolOrdersByPriorityThenInstanceID(t *testing.T) {
	t.Parallel()

	gemini2 := newTracked(health.ProviderGemini, "2")
	groq1 := newTracked(health.ProviderGroq, "1")
	cerebras1 := newTracked(health.ProviderCerebras, "1")
	groq10 := newTracked(health.ProviderGroq, "10")
	groq2 := newTracked(health.ProviderGroq, "2")

	p := pool.New([]*pool.Tracked{gemini2, groq10, cerebras1, groq2, groq1}, health.DefaultPriorityTable())

	require.Equal(t, 5, p.Len())
	assert.Equal(t, "cerebras-1", p.At(0).Identity.DisplayName())
	assert.Equal(t, "groq-1", p.At(1).Identity.DisplayName())
	assert.Equal(t, "groq-2", p.At(2).Identity.DisplayName())
	assert.Equal(t, "groq-10", p.At(3).Identity.DisplayName())
	assert.Equal(t, "gemini-2", p.At(4).Identity.DisplayName())
}

func TestPoolSetEnabledUnknownUpstream(t *testing.T) {
	t.Parallel()
	p := pool.New([]*pool.Tracked{newTracked(health.ProviderGroq, "1")}, health.DefaultPriorityTable())
	err := p.SetEnabled("groq-99", false)
	assert.ErrorIs(t, err, pool.ErrUnknownUpstream)
}

func TestPoolSetEnabledTogglesFlag(t *testing.T) {
	t.Parallel()
	p := pool.New([]*pool.Tracked{newTracked(health.ProviderGroq, "1")}, health.DefaultPriorityTable())

	require.NoError(t, p.SetEnabled("groq-1", false))
	tracked, ok := p.ByName("groq-1")
	require.True(t, ok)
	assert.False(t, tracked.Enabled())
}
