package pool

import (
	"errors"
	"sort"
	"strconv"

	"github.com/nexus-gateway/nexus/internal/health"
)

// ErrUnknownUpstream is returned by SetEnabled when no tracked upstream
// matches the given display name (§6, toggle endpoint, status 404).
var ErrUnknownUpstream = errors.New("pool: unknown upstream")

// Pool is the process-wide ordered sequence of tracked upstreams (§3). It
// is built once at startup from a fixed list and is never resized; only
// each Tracked's own mutable fields change afterward.
type Pool struct {
	ordered  []*Tracked
	byName   map[string]*Tracked
	priority health.PriorityTable
}

// New builds a Pool, sorting upstreams by descending provider priority (via
// priority) then ascending instance-id numeric value (§3 Ordering).
func New(upstreams []*Tracked, priority health.PriorityTable) *Pool {
	ordered := make([]*Tracked, len(upstreams))
	copy(ordered, upstreams)

	sort.SliceStable(ordered, func(i, j int) bool {
		pi := priority.Bonus(ordered[i].Identity.Kind)
		pj := priority.Bonus(ordered[j].Identity.Kind)
		if pi != pj {
			return pi > pj
		}
		ni, erri := strconv.Atoi(ordered[i].Identity.InstanceID)
		nj, errj := strconv.Atoi(ordered[j].Identity.InstanceID)
		if erri == nil && errj == nil && ni != nj {
			return ni < nj
		}
		return ordered[i].Identity.InstanceID < ordered[j].Identity.InstanceID
	})

	byName := make(map[string]*Tracked, len(ordered))
	for _, t := range ordered {
		byName[t.Identity.DisplayName()] = t
	}

	return &Pool{ordered: ordered, byName: byName, priority: priority}
}

// Len returns the number of tracked upstreams.
func (p *Pool) Len() int {
	return len(p.ordered)
}

// At returns the tracked upstream at its fixed startup-assigned index.
func (p *Pool) At(index int) *Tracked {
	return p.ordered[index]
}

// All returns the full ordered sequence. Callers must not mutate the
// returned slice; the Pool's backing array is shared.
func (p *Pool) All() []*Tracked {
	return p.ordered
}

// PriorityBonus returns the static priority bonus for kind (§4.5).
func (p *Pool) PriorityBonus(kind health.ProviderKind) float64 {
	return p.priority.Bonus(kind)
}

// SetEnabled toggles the enabled flag on the upstream named by display
// name. Returns ErrUnknownUpstream if no such upstream is tracked.
func (p *Pool) SetEnabled(displayName string, enabled bool) error {
	t, ok := p.byName[displayName]
	if !ok {
		return ErrUnknownUpstream
	}
	t.SetEnabled(enabled)
	return nil
}

// ByName returns the tracked upstream with the given display name, if any.
func (p *Pool) ByName(displayName string) (*Tracked, bool) {
	t, ok := p.byName[displayName]
	return t, ok
}
