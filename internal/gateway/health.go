package gateway

import (
	"net/http"
	"time"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/lifecycle"
	"github.com/nexus-gateway/nexus/internal/pool"
)

// HealthHandler serves GET /health: readiness, uptime, and a per-upstream
// metrics snapshot (§6). It additionally reports `enabled` so a
// /v1/providers/toggle call is observable without a separate query (§13).
type HealthHandler struct {
	Pool      *pool.Pool
	Lifecycle *lifecycle.Controller
	ScoreCfg  health.ScoreConfig
	startedAt time.Time
}

// NewHealthHandler creates a HealthHandler that reports uptime from now.
func NewHealthHandler(p *pool.Pool, lc *lifecycle.Controller, scoreCfg health.ScoreConfig) *HealthHandler {
	return &HealthHandler{Pool: p, Lifecycle: lc, ScoreCfg: scoreCfg, startedAt: time.Now()}
}

type healthResponse struct {
	Status       string             `json:"status"`
	UptimeS      float64            `json:"uptime_seconds"`
	ShuttingDown bool               `json:"shutting_down"`
	InFlight     int64              `json:"in_flight"`
	Upstreams    []upstreamHealth   `json:"upstreams"`
}

type upstreamHealth struct {
	Name           string  `json:"name"`
	Enabled        bool    `json:"enabled"`
	Circuit        string  `json:"circuit"`
	Score          float64 `json:"score"`
	TotalRequests  int64   `json:"total_requests"`
	SuccessCount   int64   `json:"success_count"`
	FailCount      int64   `json:"fail_count"`
	AvgLatencyMS   float64 `json:"avg_latency_ms"`
	LastErrorMsg   string  `json:"last_error_message,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	tracked := h.Pool.All()
	upstreams := make([]upstreamHealth, 0, len(tracked))

	for _, t := range tracked {
		snap := t.Metrics.Snapshot()
		breakerSnap := t.Breaker.Snapshot()
		bonus := h.Pool.PriorityBonus(t.Identity.Kind)
		score := health.Score(snap, breakerSnap, bonus, h.ScoreCfg, now)

		var avgLatency float64
		if snap.TotalRequests > 0 {
			avgLatency = float64(snap.TotalLatencyMS) / float64(snap.TotalRequests)
		}

		upstreams = append(upstreams, upstreamHealth{
			Name:          t.Identity.DisplayName(),
			Enabled:       t.Enabled(),
			Circuit:       breakerSnap.State.String(),
			Score:         score,
			TotalRequests: snap.TotalRequests,
			SuccessCount:  snap.SuccessCount,
			FailCount:     snap.FailCount,
			AvgLatencyMS:  avgLatency,
			LastErrorMsg:  snap.LastErrorMsg,
		})
	}

	status := "ok"
	if h.Lifecycle.IsShuttingDown() {
		status = "shutting_down"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:       status,
		UptimeS:      now.Sub(h.startedAt).Seconds(),
		ShuttingDown: h.Lifecycle.IsShuttingDown(),
		InFlight:     h.Lifecycle.InFlight(),
		Upstreams:    upstreams,
	})
}
