package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nexus-gateway/nexus/internal/upstream"
)

// chatRequest is the wire shape of a POST /v1/chat/completions body (§6
// pass-through fields). Stream defaults to true when absent.
type chatRequest struct {
	Messages         []chatMessage    `json:"messages"`
	Stream           *bool            `json:"stream,omitempty"`
	Model            string           `json:"model,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	TopP             *float64         `json:"top_p,omitempty"`
	MaxTokens        *int             `json:"max_tokens,omitempty"`
	PresencePenalty  *float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64         `json:"frequency_penalty,omitempty"`
	Stop             []string         `json:"stop,omitempty"`
	Tools            json.RawMessage  `json:"tools,omitempty"`
	ToolChoice       json.RawMessage  `json:"tool_choice,omitempty"`
}

// chatMessage is one element of the request's messages array. Content may
// be a plain string or an ordered array of typed parts (§4.1); contentRaw
// captures either shape for decodeContent to disambiguate.
type chatMessage struct {
	Role       string          `json:"role"`
	ContentRaw json.RawMessage `json:"content"`
}

type chatContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

// ErrValidation wraps a client-facing, non-attributed request validation
// failure (§7 kind 1, status 400).
var ErrValidation = errors.New("gateway: invalid request")

// parseAndValidate decodes and validates a chat request body into the
// upstream-facing message list and options bag.
func parseAndValidate(body []byte) (messages []upstream.Message, opts upstream.Options, stream bool, err error) {
	var req chatRequest
	if jsonErr := json.Unmarshal(body, &req); jsonErr != nil {
		return nil, upstream.Options{}, false, fmt.Errorf("%w: malformed JSON body: %v", ErrValidation, jsonErr)
	}

	if len(req.Messages) == 0 {
		return nil, upstream.Options{}, false, fmt.Errorf("%w: messages must not be empty", ErrValidation)
	}

	messages = make([]upstream.Message, 0, len(req.Messages))
	for i, m := range req.Messages {
		role, roleErr := validateRole(m.Role)
		if roleErr != nil {
			return nil, upstream.Options{}, false, fmt.Errorf("%w: messages[%d]: %v", ErrValidation, i, roleErr)
		}

		content, contentErr := decodeContent(m.ContentRaw)
		if contentErr != nil {
			return nil, upstream.Options{}, false, fmt.Errorf("%w: messages[%d]: %v", ErrValidation, i, contentErr)
		}

		messages = append(messages, upstream.Message{Role: role, Content: content})
	}

	stream = true
	if req.Stream != nil {
		stream = *req.Stream
	}

	opts = upstream.Options{
		Model:            req.Model,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		MaxTokens:        req.MaxTokens,
		Stop:             req.Stop,
		Tools:            []byte(req.Tools),
		ToolChoice:       []byte(req.ToolChoice),
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}

	return messages, opts, stream, nil
}

func validateRole(role string) (upstream.Role, error) {
	switch upstream.Role(role) {
	case upstream.RoleSystem, upstream.RoleUser, upstream.RoleAssistant:
		return upstream.Role(role), nil
	default:
		return "", fmt.Errorf("invalid role %q", role)
	}
}

// decodeContent disambiguates a message's content field between a plain
// string and an ordered array of typed parts (§4.1).
func decodeContent(raw json.RawMessage) (upstream.Content, error) {
	if len(raw) == 0 {
		return upstream.Content{}, errors.New("content is required")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return upstream.Content{}, errors.New("content must not be empty")
		}
		return upstream.Content{Text: &text}, nil
	}

	var rawParts []chatContentPart
	if err := json.Unmarshal(raw, &rawParts); err != nil {
		return upstream.Content{}, errors.New("content must be a string or an array of parts")
	}
	if len(rawParts) == 0 {
		return upstream.Content{}, errors.New("content parts must not be empty")
	}

	parts := make([]upstream.ContentPart, 0, len(rawParts))
	for i, p := range rawParts {
		switch p.Type {
		case "text":
			if p.Text == "" {
				return upstream.Content{}, fmt.Errorf("content parts[%d]: text part must not be empty", i)
			}
			parts = append(parts, upstream.ContentPart{Type: upstream.ContentPartText, Text: p.Text})
		case "image_url", "image":
			if p.ImageURL.URL == "" {
				return upstream.Content{}, fmt.Errorf("content parts[%d]: image part must carry a URL", i)
			}
			parts = append(parts, upstream.ContentPart{Type: upstream.ContentPartImage, ImageRef: p.ImageURL.URL})
		default:
			return upstream.Content{}, fmt.Errorf("content parts[%d]: unknown type %q", i, p.Type)
		}
	}

	return upstream.Content{Parts: parts}, nil
}
