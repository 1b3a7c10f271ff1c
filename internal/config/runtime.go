// Package config provides configuration loading and parsing for the gateway.
package config

import (
	"sync/atomic"
	"time"

	"github.com/nexus-gateway/nexus/internal/backoff"
	"github.com/nexus-gateway/nexus/internal/failover"
	"github.com/nexus-gateway/nexus/internal/health"
)

// Runtime provides atomic access to configuration for hot-reload support.
// It uses sync/atomic.Pointer for lock-free reads, allowing in-flight requests
// to complete with the old config while new requests see the updated config.
//
// The Store() operation is called by the config watcher when a file change is detected.
// The Get() operation is called by components on each request (or per-operation basis)
// to ensure they observe the latest configuration.
//
// Example usage:
//
//	runtime := config.NewRuntime(initialConfig)
//
//	// In a request handler or component:
//	cfg := runtime.Get()
//	mode := cfg.Routing.GetEffectiveMode()
//
//	// In the config watcher callback:
//	runtime.Store(newConfig)
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a new Runtime with the given initial configuration.
// The initial config is stored and immediately available via Get().
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration atomically.
// This is a lock-free read that returns the most recently stored config.
// Multiple concurrent calls are safe and efficient.
//
// Components should call Get() per-request or per-operation to ensure
// they observe the latest configuration after hot-reload.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store atomically updates the configuration.
// This is called by the config watcher when a file change is detected.
// The swap is atomic - readers will either see the old config or the new config,
// never an inconsistent state.
//
// In-flight requests holding a reference to the old config continue to work
// with that config. New requests will see the new config via Get().
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}

// BreakerConfig satisfies health.ConfigSource: every Breaker that has been
// handed this Runtime via SetConfigSource reads thresholds through here on
// every check, observing the result of the most recent Store (§13).
func (r *Runtime) BreakerConfig() health.BreakerConfig {
	return r.Get().Health.BreakerConfig()
}

// ScoreConfig satisfies router.ScoreConfigSource, giving the Selector's next
// scoring pass the most recently stored tunables.
func (r *Runtime) ScoreConfig() health.ScoreConfig {
	return r.Get().Health.ScoreConfig()
}

// FirstTokenTimeout satisfies failover.TunablesSource, falling back to the
// engine's own default when the config leaves it unset.
func (r *Runtime) FirstTokenTimeout() time.Duration {
	return r.Get().Server.GetFirstTokenTimeoutOption().OrElse(failover.DefaultFirstTokenTimeout)
}

// Backoff satisfies failover.TunablesSource.
func (r *Runtime) Backoff() backoff.Config {
	return r.Get().Server.Backoff.ToBackoffConfig()
}

// RuntimeConfig interface implementation.
var _ RuntimeConfig = (*Runtime)(nil)
