package router

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/pool"
)

// candidateSet is the filtered, index-preserving view over the pool that
// one Select call operates on.
type candidateSet struct {
	indices []int
	tracked []*pool.Tracked
}

// ScoreConfigSource supplies the scorer's tunables on demand instead of at
// construction time, so a hot-reloaded config (§13) is observed by the next
// selection without rebuilding the Selector. config.Runtime satisfies this
// by reading HealthConfig.ScoreConfig() off its current config on every call.
type ScoreConfigSource interface {
	ScoreConfig() health.ScoreConfig
}

// Selector implements the C6 selection strategies over a Pool.
type Selector struct {
	pool     *pool.Pool
	scoreCfg health.ScoreConfig
	src      ScoreConfigSource

	mu     sync.Mutex
	cursor int
}

// New creates a Selector over pool using scoreCfg for health scoring.
func New(p *pool.Pool, scoreCfg health.ScoreConfig) *Selector {
	return &Selector{pool: p, scoreCfg: scoreCfg}
}

// SetScoreConfigSource installs a live config source. Once set, src takes
// precedence over the static scoreCfg passed to New on every scoring call.
func (s *Selector) SetScoreConfigSource(src ScoreConfigSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src = src
}

// currentScoreConfig returns the tunables to score with right now.
func (s *Selector) currentScoreConfig() health.ScoreConfig {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()
	if src != nil {
		return src.ScoreConfig()
	}
	return s.scoreCfg
}

// Select returns the next upstream to try, given the set of indices already
// attempted this request and the routing mode (§4.6). The second return
// value is false if no candidate is available.
//
// Consulting each candidate's breaker via IsAvailable may itself perform an
// OPEN -> HALF_OPEN transition (§4.3); this is intentional and happens at
// most once per candidate per call.
func (s *Selector) Select(tried map[int]bool, mode Mode) (index int, tracked *pool.Tracked, ok bool) {
	cs := s.candidates(tried)

	switch len(cs.indices) {
	case 0:
		return 0, nil, false
	case 1:
		return cs.indices[0], cs.tracked[0], true
	}

	switch mode {
	case ModeRoundRobin:
		return s.selectRoundRobin(cs)
	case ModeFastest:
		return s.selectFastest(cs)
	default:
		return s.selectSmart(cs)
	}
}

func (s *Selector) candidates(tried map[int]bool) candidateSet {
	all := s.pool.All()
	var cs candidateSet
	for i, t := range all {
		if tried[i] {
			continue
		}
		if !t.Enabled() {
			continue
		}
		// Candidate-set step excludes OPEN breakers outright; the 0.1
		// weight floor never applies to them (§9 Open Questions).
		if !t.Breaker.IsAvailable() {
			continue
		}
		cs.indices = append(cs.indices, i)
		cs.tracked = append(cs.tracked, t)
	}
	return cs
}

// Score computes t's current health score (C5), for callers outside the
// selection path that need to report it (e.g. the metadata SSE frame, §6).
func (s *Selector) Score(t *pool.Tracked) float64 {
	return s.score(t, time.Now())
}

func (s *Selector) score(t *pool.Tracked, now time.Time) float64 {
	snap := t.Metrics.Snapshot()
	breaker := t.Breaker.Snapshot()
	bonus := s.pool.PriorityBonus(t.Identity.Kind)
	return health.Score(snap, breaker, bonus, s.currentScoreConfig(), now)
}

func (s *Selector) selectFastest(cs candidateSet) (int, *pool.Tracked, bool) {
	now := time.Now()
	bestIdx := 0
	bestScore := s.score(cs.tracked[0], now)

	for i := 1; i < len(cs.tracked); i++ {
		sc := s.score(cs.tracked[i], now)
		if sc > bestScore {
			bestScore = sc
			bestIdx = i
		}
	}
	return cs.indices[bestIdx], cs.tracked[bestIdx], true
}

func (s *Selector) selectSmart(cs candidateSet) (int, *pool.Tracked, bool) {
	now := time.Now()
	weights := lo.Map(cs.tracked, func(t *pool.Tracked, _ int) float64 {
		w := s.score(t, now)
		if w < 0.1 {
			w = 0.1
		}
		return w
	})

	total := 0.0
	for _, w := range weights {
		total += w
	}

	roll := randFloat() * total
	for i, w := range weights {
		if roll < w {
			return cs.indices[i], cs.tracked[i], true
		}
		roll -= w
	}
	last := len(cs.tracked) - 1
	return cs.indices[last], cs.tracked[last], true
}

func (s *Selector) selectRoundRobin(cs candidateSet) (int, *pool.Tracked, bool) {
	n := s.pool.Len()
	if n == 0 {
		return 0, nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.cursor % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		for ci, candidateIdx := range cs.indices {
			if candidateIdx == idx {
				s.cursor = (idx + 1) % n
				return idx, cs.tracked[ci], true
			}
		}
	}
	return 0, nil, false
}

// randFloat returns a pseudo-random float64 in [0, 1), preferring
// crypto/rand and falling back to a time-based source.
func randFloat() float64 {
	const denom = 1 << 53
	if v, err := rand.Int(rand.Reader, big.NewInt(denom)); err == nil {
		return float64(v.Int64()) / float64(denom)
	}
	return float64(time.Now().UnixNano()%denom) / float64(denom)
}
