package health

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is one of the three circuit breaker states (§3/§4.3).
type State int

// The three breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ConfigSource supplies a Breaker's thresholds on demand instead of at
// construction time, so a hot-reloaded config (§13) is observed by every
// outstanding Breaker without reconstructing the pool. config.Runtime
// satisfies this by reading HealthConfig.BreakerConfig() off its current
// config on every call.
type ConfigSource interface {
	BreakerConfig() BreakerConfig
}

// Breaker is the per-upstream circuit breaker state machine (C3). Callers
// check IsAvailable, call BeginAttempt before dispatch, and then report the
// outcome with RecordSuccess or RecordFailure. It implements the spec's own
// transition table rather than delegating to a generic breaker library —
// see DESIGN.md for why.
type Breaker struct {
	mu sync.Mutex

	name string
	cfg  BreakerConfig
	src  ConfigSource

	state             State
	failures          int
	halfOpenAttempts  int
	lastFailureAt     time.Time
	hasLastFailure    bool

	logger *zerolog.Logger
	nowFn  func() time.Time
}

// NewBreaker creates a Breaker in the CLOSED state.
func NewBreaker(name string, cfg BreakerConfig, logger *zerolog.Logger) *Breaker {
	return &Breaker{
		name:   name,
		cfg:    cfg.WithDefaults(),
		state:  StateClosed,
		logger: logger,
		nowFn:  time.Now,
	}
}

// SetConfigSource installs a live config source. Once set, src takes
// precedence over the static cfg passed to NewBreaker on every threshold
// check, so a config reload applies to in-flight breakers immediately.
func (b *Breaker) SetConfigSource(src ConfigSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.src = src
}

// config returns the thresholds to apply right now: the live source's
// current value if one is installed, otherwise the static cfg from
// construction. Must be called with b.mu held.
func (b *Breaker) config() BreakerConfig {
	if b.src != nil {
		return b.src.BreakerConfig().WithDefaults()
	}
	return b.cfg
}

// State returns the current state without mutating it (a pure read).
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// BreakerSnapshot describes the breaker's externally-visible state at one instant.
type BreakerSnapshot struct {
	State            State
	Failures         int
	HalfOpenAttempts int
	LastFailureAt    time.Time
	HasLastFailure   bool
}

// Snapshot returns a consistent copy of the breaker's state.
func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerSnapshot{
		State:            b.state,
		Failures:         b.failures,
		HalfOpenAttempts: b.halfOpenAttempts,
		LastFailureAt:    b.lastFailureAt,
		HasLastFailure:   b.hasLastFailure,
	}
}

// IsAvailable reports whether the breaker currently allows an attempt
// (§4.3 Availability). This is the only place an OPEN breaker can
// transition to HALF_OPEN: the check itself performs the transition when
// the reset timeout has elapsed.
func (b *Breaker) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.hasLastFailure && b.nowFn().Sub(b.lastFailureAt) >= b.config().ResetTimeout {
			b.transitionToHalfOpenLocked()
			return true
		}
		return false
	case StateHalfOpen:
		return b.halfOpenAttempts < b.config().HalfOpenMaxAttempts
	default:
		return false
	}
}

// BeginAttempt must be called after IsAvailable confirms availability and
// before the adapter call starts. When the breaker is HALF_OPEN, it
// increments half_open_attempts before the call so the cap holds even if
// the call blocks indefinitely (§4.7 step 4).
func (b *Breaker) BeginAttempt() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.halfOpenAttempts++
	}
}

// RecordSuccess applies the success transition for the breaker's current state.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if b.failures > 0 {
			b.failures--
		}
	case StateHalfOpen:
		b.setStateLocked(StateClosed)
		b.failures = 0
		b.halfOpenAttempts = 0
	case StateOpen:
		// Unreachable under correct usage: an OPEN breaker never allows an
		// attempt to begin, so no success can be reported against it.
	}
}

// RecordFailure applies the failure transition for the breaker's current state.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config().FailureThreshold {
			b.openLocked()
		}
	case StateHalfOpen:
		b.openLocked()
		b.halfOpenAttempts = 0
	case StateOpen:
		// See RecordSuccess: unreachable under correct usage.
	}
}

func (b *Breaker) openLocked() {
	b.setStateLocked(StateOpen)
	b.lastFailureAt = b.nowFn()
	b.hasLastFailure = true
}

func (b *Breaker) transitionToHalfOpenLocked() {
	b.setStateLocked(StateHalfOpen)
	b.halfOpenAttempts = 0
}

func (b *Breaker) setStateLocked(to State) {
	from := b.state
	b.state = to
	if from == to || b.logger == nil {
		return
	}
	event := b.logger.Info()
	if to == StateOpen {
		event = b.logger.Warn()
	}
	event.
		Str("upstream", b.name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
}
