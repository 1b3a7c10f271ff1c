package failover

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-gateway/nexus/internal/backoff"
	"github.com/nexus-gateway/nexus/internal/pool"
	"github.com/nexus-gateway/nexus/internal/router"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

// DefaultFirstTokenTimeout is the per-attempt first-token deadline (§4.7).
const DefaultFirstTokenTimeout = 8 * time.Second

// Request is one client chat request as the engine sees it.
type Request struct {
	Messages  []upstream.Message
	Options   upstream.Options
	Mode      router.Mode
	RequestID string
}

// ErrExhausted is the error a non-streaming caller maps to status 502 when
// RunBuffered finished without ever calling sink.Metadata, i.e. every
// candidate was tried and none committed (§7 kind 5).
var ErrExhausted = errors.New("failover: all upstreams exhausted")

// TunablesSource supplies the engine's per-attempt tunables on demand
// instead of at construction time, so a hot-reloaded config (§13) applies
// to the very next attempt without rebuilding the Engine. config.Runtime
// satisfies this by reading ServerConfig fields off its current config on
// every call.
type TunablesSource interface {
	FirstTokenTimeout() time.Duration
	Backoff() backoff.Config
}

// Engine is the per-request failover loop (C7).
type Engine struct {
	Selector          *router.Selector
	Pool              *pool.Pool
	FirstTokenTimeout time.Duration
	Backoff           backoff.Config
	Logger            *zerolog.Logger
	Tunables          TunablesSource

	nowFn func() time.Time
}

// New creates an Engine with the spec's default first-token timeout.
func New(selector *router.Selector, p *pool.Pool, logger *zerolog.Logger) *Engine {
	return &Engine{
		Selector:          selector,
		Pool:              p,
		FirstTokenTimeout: DefaultFirstTokenTimeout,
		Backoff:           backoff.Config{},
		Logger:            logger,
		nowFn:             time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now()
}

// firstTokenTimeout returns the deadline to race the first chunk against:
// the live source's current value if one is installed, otherwise the
// static FirstTokenTimeout field (what every existing test sets directly).
func (e *Engine) firstTokenTimeout() time.Duration {
	if e.Tunables != nil {
		return e.Tunables.FirstTokenTimeout()
	}
	return e.FirstTokenTimeout
}

// backoffCfg returns the backoff curve to delay retries with, preferring
// the live source over the static Backoff field.
func (e *Engine) backoffCfg() backoff.Config {
	if e.Tunables != nil {
		return e.Tunables.Backoff()
	}
	return e.Backoff
}

// outcome is the result of one dispatched attempt.
type outcome int

const (
	outcomeFailedNoCommit outcome = iota
	outcomeSuccess
	outcomeCommittedTerminated
	outcomeCancelled
)

// RunStreaming executes the failover loop in streaming mode, writing frames
// to sink as they are produced (§4.7, §6).
func (e *Engine) RunStreaming(ctx context.Context, req Request, sink Sink) {
	tried := make(map[int]bool)
	attemptNumber := 0
	started := false

reqLoop:
	for {
		idx, tracked, ok := e.Selector.Select(tried, req.Mode)
		if !ok {
			if attemptNumber == 0 {
				break reqLoop
			}
			if !e.sleep(ctx, e.backoffCfg().Delay(attemptNumber)) {
				sink.Done()
				return
			}
			idx, tracked, ok = e.Selector.Select(tried, req.Mode)
			if !ok {
				break reqLoop
			}
		} else if attemptNumber > 0 {
			if !e.sleep(ctx, e.backoffCfg().Delay(attemptNumber)) {
				sink.Done()
				return
			}
		}

		attemptNumber++
		tried[idx] = true

		out := e.attemptStreaming(ctx, tracked, req, sink, &started)
		switch out {
		case outcomeSuccess, outcomeCommittedTerminated, outcomeCancelled:
			sink.Done()
			return
		case outcomeFailedNoCommit:
			continue reqLoop
		}
	}

	// Exhausted: every candidate tried (or none ever existed) and none committed.
	if !started {
		sink.Error("all upstreams failed")
	}
	sink.Done()
}

// attemptStreaming dispatches one attempt against tracked and returns its outcome.
func (e *Engine) attemptStreaming(ctx context.Context, tracked *pool.Tracked, req Request, sink Sink, started *bool) outcome {
	tracked.Breaker.BeginAttempt()
	tracked.Metrics.BeginAttempt()
	start := e.now()

	stream, err := tracked.Adapter.Stream(ctx, req.Messages, req.Options)
	if err != nil {
		e.recordFailure(tracked, start, err)
		return outcomeFailedNoCommit
	}
	defer stream.Close()

	firstCtx, cancel := context.WithTimeout(ctx, e.firstTokenTimeout())
	chunk, ferr := stream.Next(firstCtx)
	cancel()

	switch {
	case ferr == nil:
		*started = true
		latency := e.now().Sub(start)
		sink.Metadata(MetadataFrame{
			Provider:    tracked.Identity.DisplayName(),
			LatencyMS:   latency.Milliseconds(),
			Circuit:     tracked.Breaker.State().String(),
			HealthScore: int(e.Selector.Score(tracked) * 100),
			RequestID:   req.RequestID,
		})
		if chunk != "" {
			sink.Chunk(chunk)
		}
		return e.streamRemaining(ctx, stream, tracked, start, sink)

	case errors.Is(ferr, io.EOF):
		// Sequence ended with no chunks before the deadline: rare success
		// with an empty body (§4.7 step 6).
		e.recordSuccess(tracked, start)
		return outcomeSuccess

	case ctx.Err() != nil:
		// Outer cancellation observed during the first-token wait.
		e.recordCancelled(tracked, start)
		return outcomeCancelled

	default:
		// First-token deadline elapsed, or the adapter failed before any chunk.
		e.recordFailure(tracked, start, ferr)
		return outcomeFailedNoCommit
	}
}

// RunBuffered executes the failover loop in non-streaming mode, dispatching
// each attempt through Adapter.Complete rather than racing a first-token
// deadline: §4.7 is explicit that there is no first-token deadline for
// non-streaming requests, only the same selection/backoff iteration. On
// final success it reports the assembled payload via a single
// Metadata+Chunk pair; on exhaustion it calls sink.Error.
func (e *Engine) RunBuffered(ctx context.Context, req Request, sink Sink) {
	tried := make(map[int]bool)
	attemptNumber := 0

reqLoop:
	for {
		idx, tracked, ok := e.Selector.Select(tried, req.Mode)
		if !ok {
			if attemptNumber == 0 {
				break reqLoop
			}
			if !e.sleep(ctx, e.backoffCfg().Delay(attemptNumber)) {
				sink.Done()
				return
			}
			idx, tracked, ok = e.Selector.Select(tried, req.Mode)
			if !ok {
				break reqLoop
			}
		} else if attemptNumber > 0 {
			if !e.sleep(ctx, e.backoffCfg().Delay(attemptNumber)) {
				sink.Done()
				return
			}
		}

		attemptNumber++
		tried[idx] = true

		out, resp, latency := e.attemptBuffered(ctx, tracked, req)
		switch out {
		case outcomeSuccess:
			sink.Metadata(MetadataFrame{
				Provider:    tracked.Identity.DisplayName(),
				LatencyMS:   latency.Milliseconds(),
				Circuit:     tracked.Breaker.State().String(),
				HealthScore: int(e.Selector.Score(tracked) * 100),
				RequestID:   req.RequestID,
			})
			sink.Chunk(resp.Content)
			sink.Done()
			return
		case outcomeCancelled:
			sink.Done()
			return
		case outcomeFailedNoCommit:
			continue reqLoop
		}
	}

	sink.Error("all upstreams failed")
	sink.Done()
}

// attemptBuffered dispatches one non-streaming attempt against tracked,
// preferring Adapter.Complete and falling back to draining Stream when the
// adapter does not implement Complete (§4.7: "the adapter's complete
// operation is used, or a fallback that concatenates the lazy sequence").
func (e *Engine) attemptBuffered(ctx context.Context, tracked *pool.Tracked, req Request) (outcome, *upstream.Response, time.Duration) {
	tracked.Breaker.BeginAttempt()
	tracked.Metrics.BeginAttempt()
	start := e.now()

	resp, err := tracked.Adapter.Complete(ctx, req.Messages, req.Options)
	if errors.Is(err, upstream.ErrCompleteUnsupported) {
		resp, err = e.completeByDraining(ctx, tracked, req)
	}

	switch {
	case err == nil:
		e.recordSuccess(tracked, start)
		return outcomeSuccess, resp, e.now().Sub(start)
	case ctx.Err() != nil:
		e.recordCancelled(tracked, start)
		return outcomeCancelled, nil, 0
	default:
		e.recordFailure(tracked, start, err)
		return outcomeFailedNoCommit, nil, 0
	}
}

// completeByDraining opens tracked's stream and concatenates every chunk,
// for adapters that only implement Stream.
func (e *Engine) completeByDraining(ctx context.Context, tracked *pool.Tracked, req Request) (*upstream.Response, error) {
	stream, err := tracked.Adapter.Stream(ctx, req.Messages, req.Options)
	if err != nil {
		return nil, err
	}

	text, err := upstream.Drain(ctx, stream)
	if err != nil {
		return nil, err
	}
	return &upstream.Response{Content: text}, nil
}

// streamRemaining pulls the rest of an already-committed sequence, forwarding
// each chunk to sink as it arrives.
func (e *Engine) streamRemaining(ctx context.Context, stream upstream.ChunkStream, tracked *pool.Tracked, start time.Time, sink Sink) outcome {
	for {
		chunk, err := stream.Next(ctx)
		if chunk != "" {
			sink.Chunk(chunk)
		}
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, io.EOF):
			e.recordSuccess(tracked, start)
			return outcomeSuccess
		case ctx.Err() != nil:
			e.recordCancelled(tracked, start)
			return outcomeCancelled
		default:
			// Committed-stream error (§4.2 kind 4, §7 kind 4): no failover.
			e.recordFailure(tracked, start, err)
			return outcomeCommittedTerminated
		}
	}
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) recordSuccess(tracked *pool.Tracked, start time.Time) {
	tracked.Metrics.RecordSuccess(e.now().Sub(start))
	tracked.Breaker.RecordSuccess()
}

func (e *Engine) recordFailure(tracked *pool.Tracked, start time.Time, err error) {
	now := e.now()
	tracked.Metrics.RecordFailure(now.Sub(start), now, err.Error())
	tracked.Breaker.RecordFailure()
}

// recordCancelled records a client-disconnect bookkeeping failure on
// metrics only (§7 kind 6). It deliberately does not trip the breaker: a
// client hanging up is not evidence the upstream is unhealthy.
func (e *Engine) recordCancelled(tracked *pool.Tracked, start time.Time) {
	now := e.now()
	tracked.Metrics.RecordFailure(now.Sub(start), now, "cancelled")
}
