// Package pool holds the process-wide, read-after-init sequence of tracked
// upstreams (C4) that the router selects over and the failover engine
// dispatches to.
package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

// Identity is the (provider_kind, instance_id) pair that names an upstream (§3).
type Identity struct {
	Kind       health.ProviderKind
	InstanceID string
}

// DisplayName returns the stable display name used for observability and
// the toggle API, e.g. "groq-1".
func (id Identity) DisplayName() string {
	return fmt.Sprintf("%s-%s", id.Kind, id.InstanceID)
}

// Tracked bundles one adapter with its metrics, breaker, and enabled flag
// (C4). A Tracked is created once at startup and never replaced; only its
// metrics/breaker/enabled fields mutate, under their own synchronization.
type Tracked struct {
	Identity Identity
	Adapter  upstream.Adapter
	Metrics  *health.Metrics
	Breaker  *health.Breaker

	enabled atomic.Bool
}

// NewTracked creates a Tracked upstream, enabled by default.
func NewTracked(id Identity, adapter upstream.Adapter, breakerCfg health.BreakerConfig, logger *zerolog.Logger) *Tracked {
	t := &Tracked{
		Identity: id,
		Adapter:  adapter,
		Metrics:  &health.Metrics{},
		Breaker:  health.NewBreaker(id.DisplayName(), breakerCfg, logger),
	}
	t.enabled.Store(true)
	return t
}

// Enabled reports whether the toggle API has this upstream turned on.
func (t *Tracked) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled flips the enabled flag; it is never persisted across restarts (§3, §9).
func (t *Tracked) SetEnabled(v bool) {
	t.enabled.Store(v)
}
