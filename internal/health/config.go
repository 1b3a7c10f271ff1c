package health

import "time"

// Default tunables from spec §4.3 and §4.4. Exposed as package-level
// constants so internal/config can override them from YAML/TOML without
// this package importing the config package back.
const (
	DefaultFailureThreshold    = 3
	DefaultResetTimeoutMS      = 60_000
	DefaultHalfOpenMaxAttempts = 1

	DefaultMinRequestsForScoring  = 3
	DefaultErrorPenaltyDurationMS = 30_000
)

// BreakerConfig configures a Breaker's thresholds.
type BreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxAttempts int
}

// WithDefaults fills zero-valued fields with the spec defaults.
func (c BreakerConfig) WithDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = DefaultResetTimeoutMS * time.Millisecond
	}
	if c.HalfOpenMaxAttempts <= 0 {
		c.HalfOpenMaxAttempts = DefaultHalfOpenMaxAttempts
	}
	return c
}

// ScoreConfig configures the health scorer's tunables.
type ScoreConfig struct {
	MinRequestsForScoring  int
	ErrorPenaltyDuration   time.Duration
	LatencyNormalizationMS int
}

// WithDefaults fills zero-valued fields with the spec defaults.
func (c ScoreConfig) WithDefaults() ScoreConfig {
	if c.MinRequestsForScoring <= 0 {
		c.MinRequestsForScoring = DefaultMinRequestsForScoring
	}
	if c.ErrorPenaltyDuration <= 0 {
		c.ErrorPenaltyDuration = DefaultErrorPenaltyDurationMS * time.Millisecond
	}
	if c.LatencyNormalizationMS <= 0 {
		c.LatencyNormalizationMS = 5000
	}
	return c
}

// ProviderKind is the fixed enumeration of upstream provider kinds (§3).
type ProviderKind string

// The four provider kinds named in the spec's static priority table (§4.5).
const (
	ProviderGroq       ProviderKind = "groq"
	ProviderGemini     ProviderKind = "gemini"
	ProviderOpenRouter ProviderKind = "openrouter"
	ProviderCerebras   ProviderKind = "cerebras"
)

// PriorityTable maps a provider kind to its static priority bonus (§4.5).
// An implementer MUST key this on ProviderKind directly — never infer a
// kind by substring-matching a display name, per the spec's redesign note.
type PriorityTable map[ProviderKind]float64

// DefaultPriorityTable is the priority bonus table from §4.5.
func DefaultPriorityTable() PriorityTable {
	return PriorityTable{
		ProviderCerebras:   0.15,
		ProviderGroq:       0.10,
		ProviderOpenRouter: 0.05,
		ProviderGemini:     0.00,
	}
}

// Bonus returns the priority bonus for kind, or 0 if the kind is unknown
// to the table (an operator-configured provider outside the fixed four).
func (t PriorityTable) Bonus(kind ProviderKind) float64 {
	return t[kind]
}
