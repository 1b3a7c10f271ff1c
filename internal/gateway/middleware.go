package gateway

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-gateway/nexus/internal/auth"
)

// RequestIDMiddleware assigns or propagates X-Request-ID and attaches a
// request-scoped logger to the request context (§13 structured logging).
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			ctx := AddRequestID(r.Context(), requestID)
			if requestID == "" {
				requestID = GetRequestID(ctx)
			}
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code for
// completion logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request: method, path, status, duration.
func LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			zerolog.Ctx(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msgf("%s %s", r.Method, r.URL.Path)

			next.ServeHTTP(wrapped, r)

			logger := zerolog.Ctx(r.Context()).With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Logger()

			switch {
			case wrapped.statusCode >= 500:
				logger.Error().Msg("request completed")
			case wrapped.statusCode >= 400:
				logger.Warn().Msg("request completed")
			default:
				logger.Info().Msg("request completed")
			}
		})
	}
}

// CORSMiddleware answers OPTIONS preflight requests directly and sets
// permissive CORS headers on every response (§6 OPTIONS endpoint; trivial
// glue per §1's scope carve-out).
func CORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Routing-Mode, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware validates the gateway's master key via the given
// Authenticator. /health is exempt regardless (§6 "health check exempt").
func AuthMiddleware(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || authenticator == nil {
				next.ServeHTTP(w, r)
				return
			}

			result := authenticator.Validate(r)
			if !result.Valid {
				zerolog.Ctx(r.Context()).Warn().Str("error", result.Error).Msg("authentication failed")
				WriteError(w, http.StatusUnauthorized, "authentication_error", result.Error)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ConcurrencyLimiter enforces a process-wide maximum number of concurrent
// chat requests ahead of the lifecycle controller's in-flight gate, so the
// two concerns (capacity vs. shutdown) stay independently configurable.
type ConcurrencyLimiter struct {
	limit   atomic.Int64
	current atomic.Int64
}

// NewConcurrencyLimiter creates a limiter. A maxLimit of 0 or less means unlimited.
func NewConcurrencyLimiter(maxLimit int64) *ConcurrencyLimiter {
	l := &ConcurrencyLimiter{}
	l.limit.Store(maxLimit)
	return l
}

// TryAcquire attempts to reserve a slot, returning false if the limit (if any) is reached.
func (l *ConcurrencyLimiter) TryAcquire() bool {
	limit := l.limit.Load()
	if limit <= 0 {
		l.current.Add(1)
		return true
	}
	for {
		current := l.current.Load()
		if current >= limit {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release frees a slot reserved by a successful TryAcquire.
func (l *ConcurrencyLimiter) Release() {
	l.current.Add(-1)
}

// ConcurrencyMiddleware rejects requests with 503 once the limiter's cap is reached.
func ConcurrencyMiddleware(limiter *ConcurrencyLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.TryAcquire() {
				WriteError(w, http.StatusServiceUnavailable, "server_busy", "server is at maximum capacity, please retry later")
				return
			}
			defer limiter.Release()
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodyBytesMiddleware caps the request body size read by downstream handlers.
func MaxBodyBytesMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
