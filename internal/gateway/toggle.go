package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nexus-gateway/nexus/internal/pool"
)

// ToggleHandler serves POST /v1/providers/toggle: sets `enabled` on one
// tracked upstream by display name (§6, §7 kind for 404 unknown upstream).
type ToggleHandler struct {
	Pool *pool.Pool
}

type toggleRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type toggleResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func (h *ToggleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
		return
	}

	var req toggleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request_error", "malformed JSON body")
		return
	}

	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
		return
	}

	if err := h.Pool.SetEnabled(req.Name, req.Enabled); err != nil {
		if errors.Is(err, pool.ErrUnknownUpstream) {
			WriteError(w, http.StatusNotFound, "not_found_error", "unknown upstream: "+req.Name)
			return
		}
		WriteError(w, http.StatusInternalServerError, "gateway_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Name: req.Name, Enabled: req.Enabled})
}
