package upstream

import (
	"context"
	"io"
	"sync"

	"github.com/samber/ro"
)

// ObservableChunkStream bridges a reactive github.com/samber/ro Observable
// of text chunks into the pull-based ChunkStream contract. This is the
// idiomatic way to build a ChunkStream: network adapters construct an
// Observable[string] (ro.NewObservable + an Observer), and this type
// subscribes once and turns pushes into pulls.
type ObservableChunkStream struct {
	mu       sync.Mutex
	ch       chan item
	sub      ro.Subscription
	closed   bool
}

type item struct {
	chunk string
	err   error // io.EOF on normal completion
}

// NewObservableChunkStream subscribes to source and returns a ChunkStream
// over its emissions. The subscription starts immediately; an adapter
// should construct source lazily (inside ro.NewObservable's factory) so
// that subscribing is what actually opens the underlying connection.
func NewObservableChunkStream(source ro.Observable[string]) *ObservableChunkStream {
	s := &ObservableChunkStream{
		ch: make(chan item, 8),
	}

	s.sub = source.Subscribe(ro.NewObserver(
		func(chunk string) {
			if chunk == "" {
				return
			}
			s.ch <- item{chunk: chunk}
		},
		func(err error) {
			s.ch <- item{err: err}
			close(s.ch)
		},
		func() {
			s.ch <- item{err: io.EOF}
			close(s.ch)
		},
	))

	return s
}

// Next returns the next chunk, io.EOF when the sequence ends normally, or
// ctx.Err() if ctx is done first.
func (s *ObservableChunkStream) Next(ctx context.Context) (string, error) {
	select {
	case it, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		return it.chunk, it.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close releases the underlying subscription. Safe to call more than once.
func (s *ObservableChunkStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
}

// Drain pulls every remaining chunk from stream and concatenates them,
// stopping at the first error (io.EOF is not an error here). It is the
// fallback Complete implementation for adapters that only implement Stream
// (§4.1's second, optional operation).
func Drain(ctx context.Context, stream ChunkStream) (string, error) {
	defer stream.Close()

	var out []byte
	for {
		chunk, err := stream.Next(ctx)
		if chunk != "" {
			out = append(out, chunk...)
		}
		if err != nil {
			if err == io.EOF {
				return string(out), nil
			}
			return string(out), err
		}
	}
}
