package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// errorResponse matches the OpenAI-compatible error envelope named in §6.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// WriteError writes a JSON error envelope with the given status code.
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	writeJSON(w, statusCode, errorResponse{Error: errorDetail{Message: message, Type: errorType}})
}

// shutdownRetryAfterSeconds is the Retry-After value for 503s during drain (§7 kind 7).
const shutdownRetryAfterSeconds = 30

// WriteShutdownRejection writes the 503 + Retry-After response for a request
// that arrived while the server is shutting down (§7 kind 7, §8 S5).
func WriteShutdownRejection(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(shutdownRetryAfterSeconds))
	WriteError(w, http.StatusServiceUnavailable, "gateway_error", "server is shutting down")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
