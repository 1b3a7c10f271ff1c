package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nexus-gateway/nexus/internal/failover"
)

// SetSSEHeaders sets the headers required for an SSE response to survive
// proxies/CDNs without buffering (§6 streaming mode).
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Connection", "keep-alive")
}

type metadataEventPayload struct {
	Type     string          `json:"type"`
	Metadata metadataPayload `json:"metadata"`
}

type metadataPayload struct {
	Provider    string `json:"provider"`
	LatencyMS   int64  `json:"latency"`
	Circuit     string `json:"circuit"`
	HealthScore int    `json:"healthScore"`
	RequestID   string `json:"requestId"`
}

type chunkFrame struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Delta        chunkDelta `json:"delta"`
	Index        int        `json:"index"`
	FinishReason *string    `json:"finish_reason"`
}

type chunkDelta struct {
	Content string `json:"content"`
}

type sseErrorFrame struct {
	Error sseErrorDetail `json:"error"`
}

type sseErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// sseSink adapts an http.ResponseWriter/http.Flusher pair to failover.Sink,
// writing each frame as one `data: <json>\n\n` SSE event (§6).
type sseSink struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	requestID string
	model     string
	created   int64
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher, requestID, model string) *sseSink {
	return &sseSink{w: w, flusher: flusher, requestID: requestID, model: model, created: time.Now().Unix()}
}

func (s *sseSink) Metadata(f failover.MetadataFrame) {
	s.writeEvent(metadataEventPayload{
		Type: "nexus-metadata",
		Metadata: metadataPayload{
			Provider:    f.Provider,
			LatencyMS:   f.LatencyMS,
			Circuit:     f.Circuit,
			HealthScore: f.HealthScore,
			RequestID:   f.RequestID,
		},
	})
}

func (s *sseSink) Chunk(text string) {
	s.writeEvent(chunkFrame{
		ID:      s.requestID,
		Object:  "chat.completion.chunk",
		Created: s.created,
		Model:   s.model,
		Choices: []chunkChoice{{Delta: chunkDelta{Content: text}, Index: 0, FinishReason: nil}},
	})
}

func (s *sseSink) Error(message string) {
	s.writeEvent(sseErrorFrame{Error: sseErrorDetail{Message: message, Type: "gateway_error"}})
}

func (s *sseSink) Done() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}

func (s *sseSink) writeEvent(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
}

// bufferingSink adapts failover.Sink to the non-streaming response shape:
// it accumulates chunks and reports the outcome via result() once Done is
// called (§6 non-streaming response).
type bufferingSink struct {
	metadata *failover.MetadataFrame
	builder  strings.Builder
	errMsg   string
	done     bool
}

func newBufferingSink() *bufferingSink {
	return &bufferingSink{}
}

func (s *bufferingSink) Metadata(f failover.MetadataFrame) {
	m := f
	s.metadata = &m
}

func (s *bufferingSink) Chunk(text string) {
	s.builder.WriteString(text)
}

func (s *bufferingSink) Error(message string) {
	s.errMsg = message
}

func (s *bufferingSink) Done() {
	s.done = true
}

// result reports whether any chunk committed, the assembled content, and
// the error message if the request was exhausted (§7 kind 5, status 502).
func (s *bufferingSink) result() (content string, committed bool, errMsg string) {
	return s.builder.String(), s.metadata != nil, s.errMsg
}
