package gateway

import (
	"net/http"

	"github.com/nexus-gateway/nexus/internal/pool"
)

// ModelsHandler serves GET /v1/models: the tracked upstreams, since model
// selection beyond pass-through is a non-goal (§1) — the gateway has no
// per-model catalog to report, only the upstreams a request can land on.
type ModelsHandler struct {
	Pool *pool.Pool
}

type modelsListResponse struct {
	Object string        `json:"object"`
	Data   []modelEntry  `json:"data"`
}

type modelEntry struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
	Enabled bool   `json:"enabled"`
	Circuit string `json:"circuit"`
}

func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	tracked := h.Pool.All()
	data := make([]modelEntry, 0, len(tracked))
	for _, t := range tracked {
		data = append(data, modelEntry{
			ID:      t.Identity.DisplayName(),
			Object:  "model",
			OwnedBy: string(t.Identity.Kind),
			Enabled: t.Enabled(),
			Circuit: t.Breaker.State().String(),
		})
	}

	writeJSON(w, http.StatusOK, modelsListResponse{Object: "list", Data: data})
}
