package gateway

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server wraps http.Server with the timeouts a long-lived SSE stream needs.
type Server struct {
	httpServer *http.Server
	addr       string
}

// NewServer creates a Server with timeouts sized for streaming chat
// completions rather than short request/response cycles.
// ReadTimeout guards against slow clients; WriteTimeout is long enough for
// a slow upstream streaming a multi-minute response; IdleTimeout is a
// conventional keep-alive window.
// If enableHTTP2 is true, wraps handler with h2c so HTTP/2 multiplexing
// works over a plain (non-TLS) listener too.
func NewServer(addr string, handler http.Handler, enableHTTP2 bool) *Server {
	finalHandler := handler
	if enableHTTP2 {
		h2s := &http2.Server{}
		finalHandler = h2c.NewHandler(handler, h2s)
	}

	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      finalHandler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// ListenAndServe starts the server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, closing idle connections and
// waiting for active ones up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}
