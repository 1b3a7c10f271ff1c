// Package upstream defines the capability contract (C1) that the core
// routes and fails over across. Concrete network adapters for real remote
// chat APIs are out of scope (§1) — this package only defines the contract
// and the test/mock adapters used to exercise the failover engine.
package upstream

import "context"

// Role is one of the three message roles the spec allows (§4.1).
type Role string

// The three allowed message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentPartType distinguishes a text part from an image-reference part (§4.1).
type ContentPartType string

// The two content part kinds.
const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image"
)

// ContentPart is one ordered element of a multi-part message body.
type ContentPart struct {
	Type     ContentPartType
	Text     string // set when Type == ContentPartText
	ImageRef string // set when Type == ContentPartImage; an opaque reference (URL or data URI)
}

// Content is either a plain string or an ordered sequence of parts (§4.1).
// Exactly one of Text/Parts is populated.
type Content struct {
	Text  *string
	Parts []ContentPart
}

// Message is one validated chat message.
type Message struct {
	Role    Role
	Content Content
}

// Options carries pass-through generation parameters (§4.1). Fields are
// pointers so "unset" is distinguishable from the zero value.
type Options struct {
	Model            string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	Stop             []string
	Tools            []byte // raw JSON passed through verbatim
	ToolChoice       []byte // raw JSON passed through verbatim
	PresencePenalty  *float64
	FrequencyPenalty *float64
}

// Response is the final, non-streaming payload produced by Complete.
type Response struct {
	Content string
}

// Adapter is the uniform capability the core sees for one remote upstream
// (§4.1). Stream is mandatory; Complete is optional (see ErrCompleteUnsupported).
type Adapter interface {
	// Stream opens a lazy, non-restartable sequence of non-empty text
	// chunks. Cancelling ctx (or calling ChunkStream.Close before the
	// sequence ends) must release the underlying connection promptly.
	Stream(ctx context.Context, messages []Message, opts Options) (ChunkStream, error)

	// Complete returns a single final response for non-streaming clients.
	// Implementations that only support streaming return ErrCompleteUnsupported.
	Complete(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

// ChunkStream is a pull-based handle over a lazy sequence of chunks (§9,
// "Cooperative iteration of an asynchronous sequence"). Next blocks until a
// chunk is available, the sequence ends, or ctx is done. Close releases the
// underlying connection; it is safe to call more than once and must be
// called exactly once by the consumer once it stops pulling.
type ChunkStream interface {
	Next(ctx context.Context) (chunk string, err error)
	Close()
}
