// Package config provides configuration loading and parsing for the gateway.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/nexus-gateway/nexus/internal/backoff"
	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/router"
)

// Configuration errors.
var (
	ErrKindRequired       = errors.New("config: upstream kind is required")
	ErrInstanceIDRequired = errors.New("config: upstream instance_id is required")
)

// RuntimeConfig defines the interface for accessing runtime configuration
// that supports hot-reload. Components that need to observe config changes
// should use this interface instead of holding a direct *Config pointer,
// which would become stale after hot-reload.
//
// Usage pattern:
//
//	func (s *Selector) tuning() health.ScoreConfig {
//		return s.runtime.Get().Health.ScoreConfig()
//	}
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config represents the complete gateway configuration.
type Config struct {
	Upstreams []UpstreamConfig `yaml:"upstreams" toml:"upstreams"`
	Routing   RoutingConfig    `yaml:"routing" toml:"routing"`
	Health    HealthConfig     `yaml:"health" toml:"health"`
	Logging   LoggingConfig    `yaml:"logging" toml:"logging"`
	Server    ServerConfig     `yaml:"server" toml:"server"`
}

// UpstreamConfig names one tracked upstream in the pool (§3). Adapter
// construction (API keys, base URLs) is resolved from the environment at
// startup, not from this file (§1 Non-goals).
type UpstreamConfig struct {
	Kind       string `yaml:"kind" toml:"kind"`               // groq, gemini, openrouter, cerebras
	InstanceID string `yaml:"instance_id" toml:"instance_id"` // e.g. "1", "2"
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
}

// DisplayName mirrors pool.Identity.DisplayName for config-time diagnostics.
func (u *UpstreamConfig) DisplayName() string {
	return fmt.Sprintf("%s-%s", u.Kind, u.InstanceID)
}

// Validate checks UpstreamConfig for errors.
func (u *UpstreamConfig) Validate() error {
	if u.Kind == "" {
		return ErrKindRequired
	}
	if u.InstanceID == "" {
		return ErrInstanceIDRequired
	}
	return nil
}

// RoutingConfig defines the default selection strategy (§4.6). A request may
// still override it per-call via X-Routing-Mode.
type RoutingConfig struct {
	// Mode is one of smart (default), fastest, round_robin.
	Mode string `yaml:"mode" toml:"mode"`
}

// GetEffectiveMode returns the configured default mode, falling back to
// smart for an empty or unrecognized value.
func (r *RoutingConfig) GetEffectiveMode() router.Mode {
	return router.ParseMode(r.Mode)
}

// HealthConfig carries the tunables behind the breaker (C3) and the health
// score (C5). Zero values fall back to the spec defaults (§4.3, §4.5).
type HealthConfig struct {
	FailureThresholdCount  int                `yaml:"failure_threshold" toml:"failure_threshold"`
	ResetTimeoutMS         int                `yaml:"reset_timeout_ms" toml:"reset_timeout_ms"`
	HalfOpenMaxAttempts    int                `yaml:"half_open_max_attempts" toml:"half_open_max_attempts"`
	MinRequestsForScoring  int                `yaml:"min_requests_for_scoring" toml:"min_requests_for_scoring"`
	ErrorPenaltyDurationMS int                `yaml:"error_penalty_duration_ms" toml:"error_penalty_duration_ms"`
	LatencyNormalizationMS int                `yaml:"latency_normalization_ms" toml:"latency_normalization_ms"`
	Priority               map[string]float64 `yaml:"priority" toml:"priority"`
}

// BreakerConfig converts the YAML/TOML tunables into health.BreakerConfig.
func (h *HealthConfig) BreakerConfig() health.BreakerConfig {
	cfg := health.BreakerConfig{
		FailureThreshold:    h.FailureThresholdCount,
		HalfOpenMaxAttempts: h.HalfOpenMaxAttempts,
	}
	if h.ResetTimeoutMS > 0 {
		cfg.ResetTimeout = time.Duration(h.ResetTimeoutMS) * time.Millisecond
	}
	return cfg.WithDefaults()
}

// ScoreConfig converts the YAML/TOML tunables into health.ScoreConfig.
func (h *HealthConfig) ScoreConfig() health.ScoreConfig {
	cfg := health.ScoreConfig{
		MinRequestsForScoring:  h.MinRequestsForScoring,
		LatencyNormalizationMS: h.LatencyNormalizationMS,
	}
	if h.ErrorPenaltyDurationMS > 0 {
		cfg.ErrorPenaltyDuration = time.Duration(h.ErrorPenaltyDurationMS) * time.Millisecond
	}
	return cfg.WithDefaults()
}

// PriorityTable converts the configured per-kind bonuses into a
// health.PriorityTable, falling back to the spec default table for any kind
// left unconfigured.
func (h *HealthConfig) PriorityTable() health.PriorityTable {
	table := health.DefaultPriorityTable()
	for kind, bonus := range h.Priority {
		table[health.ProviderKind(kind)] = bonus
	}
	return table
}

// ServerConfig defines server-level settings.
type ServerConfig struct {
	Listen               string        `yaml:"listen" toml:"listen"`
	Auth                 AuthConfig    `yaml:"auth" toml:"auth"`
	TimeoutMS            int           `yaml:"timeout_ms" toml:"timeout_ms"`
	MaxConcurrent        int           `yaml:"max_concurrent" toml:"max_concurrent"`
	EnableHTTP2          bool          `yaml:"enable_http2" toml:"enable_http2"`
	FirstTokenTimeoutMS  int           `yaml:"first_token_timeout_ms" toml:"first_token_timeout_ms"`
	ShutdownTimeoutMS    int           `yaml:"shutdown_timeout_ms" toml:"shutdown_timeout_ms"`
	Backoff              BackoffConfig `yaml:"backoff" toml:"backoff"`
}

// BackoffConfig is the YAML/TOML form of backoff.Config (C9).
type BackoffConfig struct {
	InitialDelayMS int     `yaml:"initial_delay_ms" toml:"initial_delay_ms"`
	Multiplier     float64 `yaml:"multiplier" toml:"multiplier"`
	MaxDelayMS     int     `yaml:"max_delay_ms" toml:"max_delay_ms"`
}

// ToBackoffConfig converts to backoff.Config with spec defaults filled in for
// any field left unset.
func (b *BackoffConfig) ToBackoffConfig() backoff.Config {
	cfg := backoff.Config{Multiplier: b.Multiplier}
	if b.InitialDelayMS > 0 {
		cfg.InitialDelay = time.Duration(b.InitialDelayMS) * time.Millisecond
	}
	if b.MaxDelayMS > 0 {
		cfg.MaxDelay = time.Duration(b.MaxDelayMS) * time.Millisecond
	}
	return cfg.WithDefaults()
}

// AuthConfig defines authentication settings for the gateway's own surface,
// distinct from the per-upstream credentials resolved from the environment.
type AuthConfig struct {
	// MasterKey is the expected Authorization: Bearer value. If empty,
	// authentication is disabled (suitable for local development only).
	MasterKey string `yaml:"master_key" toml:"master_key"`
}

// IsEnabled returns true if master-key authentication is configured.
func (a *AuthConfig) IsEnabled() bool {
	return a.MasterKey != ""
}

// GetTimeoutOption returns the request timeout as an Option.
// Returns None if TimeoutMS is zero (use default).
func (s *ServerConfig) GetTimeoutOption() mo.Option[time.Duration] {
	if s.TimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.TimeoutMS) * time.Millisecond)
}

// GetMaxConcurrentOption returns the max concurrent setting as an Option.
// Returns None if MaxConcurrent is zero (unlimited).
func (s *ServerConfig) GetMaxConcurrentOption() mo.Option[int] {
	if s.MaxConcurrent <= 0 {
		return mo.None[int]()
	}
	return mo.Some(s.MaxConcurrent)
}

// GetFirstTokenTimeoutOption returns the first-token deadline as an Option.
// Returns None if unset (use the failover engine's default).
func (s *ServerConfig) GetFirstTokenTimeoutOption() mo.Option[time.Duration] {
	if s.FirstTokenTimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.FirstTokenTimeoutMS) * time.Millisecond)
}

// GetShutdownTimeoutOption returns the shutdown drain timeout as an Option.
// Returns None if unset (use lifecycle.DefaultShutdownTimeout).
func (s *ServerConfig) GetShutdownTimeoutOption() mo.Option[time.Duration] {
	if s.ShutdownTimeoutMS <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(s.ShutdownTimeoutMS) * time.Millisecond)
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
