package gateway

import (
	"net/http"

	"github.com/nexus-gateway/nexus/internal/auth"
	"github.com/nexus-gateway/nexus/internal/config"
	"github.com/nexus-gateway/nexus/internal/failover"
	"github.com/nexus-gateway/nexus/internal/lifecycle"
	"github.com/nexus-gateway/nexus/internal/pool"
)

// NewRouter assembles the mux and middleware chain for the gateway's
// external surface (§6): chat completions, models, health, toggle, and
// CORS preflight on any path.
func NewRouter(cfg *config.Config, p *pool.Pool, engine *failover.Engine, lc *lifecycle.Controller) http.Handler {
	mux := http.NewServeMux()

	var authenticator auth.Authenticator
	if cfg.Server.Auth.IsEnabled() {
		authenticator = auth.NewBearerAuthenticator(cfg.Server.Auth.MasterKey)
	}

	limiter := NewConcurrencyLimiter(int64(cfg.Server.MaxConcurrent))

	chat := &ChatHandler{Engine: engine, Lifecycle: lc, DefaultMode: cfg.Routing.GetEffectiveMode()}
	var chatHandler http.Handler = chat
	chatHandler = MaxBodyBytesMiddleware(maxChatBodyBytes)(chatHandler)
	chatHandler = ConcurrencyMiddleware(limiter)(chatHandler)
	mux.Handle("POST /v1/chat/completions", chatHandler)

	mux.Handle("GET /v1/models", &ModelsHandler{Pool: p})
	mux.Handle("GET /health", NewHealthHandler(p, lc, cfg.Health.ScoreConfig()))
	mux.Handle("POST /v1/providers/toggle", &ToggleHandler{Pool: p})

	var handler http.Handler = mux
	handler = AuthMiddleware(authenticator)(handler)
	handler = LoggingMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)

	return handler
}
