package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexus-gateway/nexus/internal/failover"
	"github.com/nexus-gateway/nexus/internal/lifecycle"
	"github.com/nexus-gateway/nexus/internal/router"
)

const maxChatBodyBytes = 10 << 20 // 10 MiB

// ChatHandler serves POST /v1/chat/completions, dispatching every request
// through the failover engine and writing either an SSE stream or a
// buffered JSON response (§6).
type ChatHandler struct {
	Engine     *failover.Engine
	Lifecycle  *lifecycle.Controller
	DefaultMode router.Mode
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	leave, ok := h.Lifecycle.Enter()
	if !ok {
		WriteShutdownRejection(w)
		return
	}
	defer leave()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
		return
	}

	messages, opts, stream, err := parseAndValidate(body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	mode := h.DefaultMode
	if header := r.Header.Get("X-Routing-Mode"); header != "" {
		mode = router.ParseMode(header)
	}
	if mode == "" {
		mode = router.ModeSmart
	}

	requestID := GetRequestID(r.Context())
	req := failover.Request{Messages: messages, Options: opts, Mode: mode, RequestID: requestID}

	if stream {
		h.serveStreaming(w, r, req, opts.Model)
		return
	}
	h.serveBuffered(w, r, req, opts.Model)
}

func (h *ChatHandler) serveStreaming(w http.ResponseWriter, r *http.Request, req failover.Request, model string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "gateway_error", "streaming not supported by this connection")
		return
	}

	SetSSEHeaders(w.Header())
	w.WriteHeader(http.StatusOK)

	sink := newSSESink(w, flusher, req.RequestID, model)
	h.Engine.RunStreaming(r.Context(), req, sink)
}

func (h *ChatHandler) serveBuffered(w http.ResponseWriter, r *http.Request, req failover.Request, model string) {
	sink := newBufferingSink()
	h.Engine.RunBuffered(r.Context(), req, sink)

	content, committed, errMsg := sink.result()
	if !committed {
		msg := errMsg
		if msg == "" {
			msg = failover.ErrExhausted.Error()
		}
		WriteError(w, http.StatusBadGateway, "gateway_error", msg)
		return
	}

	response := chatCompletionResponse{
		ID:      req.RequestID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []chatCompletionChoice{{
			Index:        0,
			Message:      chatCompletionMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	}

	zerolog.Ctx(r.Context()).Debug().Msg("non-streaming response assembled")
	writeJSON(w, http.StatusOK, response)
}

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
}

type chatCompletionChoice struct {
	Index        int                    `json:"index"`
	Message      chatCompletionMessage  `json:"message"`
	FinishReason string                 `json:"finish_reason"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
