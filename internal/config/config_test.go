package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-gateway/nexus/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Upstreams: []config.UpstreamConfig{
			{Kind: "groq", InstanceID: "1", Enabled: true},
			{Kind: "cerebras", InstanceID: "1", Enabled: true},
		},
		Routing: config.RoutingConfig{Mode: "smart"},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Server:  config.ServerConfig{Listen: "127.0.0.1:8787"},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingListenAddress(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.Listen = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.listen is required")
}

func TestValidateRejectsMalformedListenAddress(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.Listen = "not-a-host-port"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host:port format")
}

func TestValidateRejectsDuplicateUpstreamNames(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Upstreams = append(cfg.Upstreams, config.UpstreamConfig{Kind: "groq", InstanceID: "1"})
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate upstream: groq-1")
}

func TestValidateRejectsMissingUpstreamKind(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Upstreams = []config.UpstreamConfig{{InstanceID: "1"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind is required")
}

func TestValidateRejectsBadRoutingMode(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Routing.Mode = "bogus"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routing.mode is invalid")
}

func TestValidateRejectsOutOfRangePriorityBonus(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Health.Priority = map[string]float64{"groq": 1.5}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health.priority")
}

func TestHealthConfigAppliesDefaultsWhenUnset(t *testing.T) {
	t.Parallel()
	var h config.HealthConfig
	breaker := h.BreakerConfig()
	assert.Equal(t, 3, breaker.FailureThreshold)

	score := h.ScoreConfig()
	assert.Positive(t, score.MinRequestsForScoring)
}

func TestPriorityTableOverridesDefault(t *testing.T) {
	t.Parallel()
	h := config.HealthConfig{Priority: map[string]float64{"groq": 0.5}}
	table := h.PriorityTable()
	assert.InDelta(t, 0.5, table.Bonus("groq"), 0.0001)
	assert.InDelta(t, 0.15, table.Bonus("cerebras"), 0.0001)
}
