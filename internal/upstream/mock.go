package upstream

import (
	"context"
	"time"

	"github.com/samber/ro"
)

// MockAdapter is a deterministic test double for Adapter. It is exported
// (not _test.go-gated) because the failover engine's own tests, and any
// future adapter's tests, need a reusable stand-in for a real network
// upstream — mirroring the teacher's pattern of keeping small test doubles
// alongside production code when multiple packages need them.
type MockAdapter struct {
	// Chunks are emitted in order, one per Delay tick, before the stream
	// completes normally.
	Chunks []string
	// Delay is the pause before each chunk and before a FailAfter failure;
	// normal completion follows the last chunk without a pause. Used to
	// simulate the first-token deadline.
	Delay time.Duration
	// FailAfter, if >= 0, makes the stream fail with Err after emitting
	// this many chunks (0 means fail before any chunk).
	FailAfter int
	Err       error
	// RejectImmediately makes Stream itself return Err without opening a sequence.
	RejectImmediately bool
	// CompleteUnsupported makes Complete return ErrCompleteUnsupported.
	CompleteUnsupported bool

	closed bool
}

// Stream implements Adapter.
func (m *MockAdapter) Stream(_ context.Context, _ []Message, _ Options) (ChunkStream, error) {
	if m.RejectImmediately {
		return nil, m.Err
	}

	obs := ro.NewObservable(func(observer ro.Observer[string]) ro.Teardown {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for i, c := range m.Chunks {
				if m.FailAfter >= 0 && i >= m.FailAfter {
					if m.Delay > 0 {
						time.Sleep(m.Delay)
					}
					observer.Error(m.Err)
					return
				}
				if m.Delay > 0 {
					time.Sleep(m.Delay)
				}
				observer.Next(c)
			}
			if m.FailAfter >= 0 && m.FailAfter >= len(m.Chunks) {
				if m.Delay > 0 {
					time.Sleep(m.Delay)
				}
				observer.Error(m.Err)
				return
			}
			observer.Complete()
		}()
		return func() {
			m.closed = true
		}
	})

	return NewObservableChunkStream(obs), nil
}

// Complete implements Adapter.
func (m *MockAdapter) Complete(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	if m.CompleteUnsupported {
		return nil, ErrCompleteUnsupported
	}
	stream, err := m.Stream(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	text, err := Drain(ctx, stream)
	if err != nil {
		return nil, err
	}
	return &Response{Content: text}, nil
}
