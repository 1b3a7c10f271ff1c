package health

import "time"

// Score computes the health score for one upstream at wall-clock now (§4.4,
// C5). It is a pure function of a metrics snapshot, a breaker snapshot, the
// static priority bonus, and the scorer's tunables — never persisted, and
// safe to call repeatedly with no intervening update for the same result.
func Score(snap Snapshot, breaker BreakerSnapshot, bonus float64, cfg ScoreConfig, now time.Time) float64 {
	cfg = cfg.WithDefaults()

	switch breaker.State {
	case StateOpen:
		return 0
	case StateHalfOpen:
		return 0.1
	}

	bonus = clamp(bonus, 0, 0.15)

	if snap.TotalRequests < int64(cfg.MinRequestsForScoring) {
		return clamp(0.5+bonus, 0, 1)
	}

	successRate := float64(snap.SuccessCount) / float64(snap.TotalRequests)
	avgLatency := float64(snap.TotalLatencyMS) / float64(snap.TotalRequests)
	latencyScore := 1 - avgLatency/float64(cfg.LatencyNormalizationMS)
	if latencyScore < 0 {
		latencyScore = 0
	}

	var recentErrorPenalty float64
	if snap.HasLastError {
		delta := now.Sub(snap.LastErrorAt)
		if delta < cfg.ErrorPenaltyDuration {
			fraction := 1 - float64(delta)/float64(cfg.ErrorPenaltyDuration)
			recentErrorPenalty = 0.3 * fraction
		}
	}

	score := 0.5*successRate + 0.3*latencyScore + bonus - recentErrorPenalty
	return clamp(score, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
