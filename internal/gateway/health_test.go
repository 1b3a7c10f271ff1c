package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/lifecycle"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

func TestHealthHandlerReportsOKAndUpstreams(t *testing.T) {
	t.Parallel()

	tracked := newTestTracked(t, health.ProviderGroq, "1", &upstream.MockAdapter{})
	_, p := newTestEngine(t, tracked)
	lc := lifecycle.New()

	handler := NewHealthHandler(p, lc, health.ScoreConfig{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"ok"`)
	assert.Contains(t, body, `"groq-1"`)
}

func TestHealthHandlerReportsInFlight(t *testing.T) {
	t.Parallel()

	tracked := newTestTracked(t, health.ProviderGroq, "1", &upstream.MockAdapter{})
	_, p := newTestEngine(t, tracked)
	lc := lifecycle.New()
	leave, ok := lc.Enter()
	assert.True(t, ok)
	defer leave()

	handler := NewHealthHandler(p, lc, health.ScoreConfig{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"in_flight":1`)
}

func TestModelsHandlerListsTrackedUpstreams(t *testing.T) {
	t.Parallel()

	tracked := newTestTracked(t, health.ProviderGemini, "2", &upstream.MockAdapter{})
	_, p := newTestEngine(t, tracked)

	handler := &ModelsHandler{Pool: p}
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gemini-2"`)
}
