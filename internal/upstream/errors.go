package upstream

import "errors"

// ErrCompleteUnsupported is returned by adapters that only implement Stream.
var ErrCompleteUnsupported = errors.New("upstream: adapter does not support non-streaming completion")

// ErrEmptyChunk is never returned to a caller; adapters must suppress empty
// chunks internally rather than emit them (§4.1). Kept as a named sentinel
// so adapter implementations can assert this invariant in their own tests.
var ErrEmptyChunk = errors.New("upstream: adapter produced an empty chunk")
