package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-gateway/nexus/internal/upstream"
)

func TestParseAndValidateAcceptsStringContent(t *testing.T) {
	t.Parallel()
	body := []byte(`{"messages":[{"role":"user","content":"hello"}]}`)
	messages, _, stream, err := parseAndValidate(body)
	require.NoError(t, err)
	assert.True(t, stream)
	require.Len(t, messages, 1)
	assert.Equal(t, upstream.RoleUser, messages[0].Role)
	require.NotNil(t, messages[0].Content.Text)
	assert.Equal(t, "hello", *messages[0].Content.Text)
}

func TestParseAndValidateAcceptsMultiPartContent(t *testing.T) {
	t.Parallel()
	body := []byte(`{"messages":[{"role":"user","content":[
		{"type":"text","text":"look at this"},
		{"type":"image_url","image_url":{"url":"https://example.com/a.png"}}
	]}]}`)
	messages, _, _, err := parseAndValidate(body)
	require.NoError(t, err)
	require.Len(t, messages[0].Content.Parts, 2)
	assert.Equal(t, upstream.ContentPartText, messages[0].Content.Parts[0].Type)
	assert.Equal(t, upstream.ContentPartImage, messages[0].Content.Parts[1].Type)
	assert.Equal(t, "https://example.com/a.png", messages[0].Content.Parts[1].ImageRef)
}

func TestParseAndValidateDefaultsStreamTrue(t *testing.T) {
	t.Parallel()
	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)
	_, _, stream, err := parseAndValidate(body)
	require.NoError(t, err)
	assert.True(t, stream)
}

func TestParseAndValidateHonorsExplicitStreamFalse(t *testing.T) {
	t.Parallel()
	body := []byte(`{"messages":[{"role":"user","content":"hi"}],"stream":false}`)
	_, _, stream, err := parseAndValidate(body)
	require.NoError(t, err)
	assert.False(t, stream)
}

func TestParseAndValidateRejectsEmptyMessages(t *testing.T) {
	t.Parallel()
	_, _, _, err := parseAndValidate([]byte(`{"messages":[]}`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseAndValidateRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	_, _, _, err := parseAndValidate([]byte(`not json`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseAndValidateRejectsUnknownRole(t *testing.T) {
	t.Parallel()
	_, _, _, err := parseAndValidate([]byte(`{"messages":[{"role":"tool","content":"hi"}]}`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseAndValidateRejectsEmptyStringContent(t *testing.T) {
	t.Parallel()
	_, _, _, err := parseAndValidate([]byte(`{"messages":[{"role":"user","content":""}]}`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseAndValidateRejectsUnknownPartType(t *testing.T) {
	t.Parallel()
	_, _, _, err := parseAndValidate([]byte(`{"messages":[{"role":"user","content":[{"type":"audio"}]}]}`))
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseAndValidatePassesThroughOptions(t *testing.T) {
	t.Parallel()
	body := []byte(`{"messages":[{"role":"user","content":"hi"}],"model":"m1","temperature":0.5,"max_tokens":128}`)
	_, opts, _, err := parseAndValidate(body)
	require.NoError(t, err)
	assert.Equal(t, "m1", opts.Model)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.5, *opts.Temperature, 0.0001)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 128, *opts.MaxTokens)
}
