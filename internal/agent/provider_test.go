package agent

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureServer(t *testing.T, suffix, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, suffix) {
			http.NotFound(w, r)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err == nil {
			_ = json.Unmarshal(body, &captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func sampleRequest() Request {
	return Request{
		Model:  "test-model",
		System: "be brief",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: "call_1", Name: "alpha_echo", Arguments: map[string]any{"text": "a"}},
				{ID: "call_2", Name: "alpha_echo", Arguments: map[string]any{"text": "b"}},
			}},
			{Role: RoleTool, ToolCallID: "call_1", Content: "a"},
			{Role: RoleTool, ToolCallID: "call_2", Content: "b", IsError: true},
		},
		Tools: []ToolSpec{{
			Name:        "alpha_echo",
			Description: "Echo text",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"text": map[string]any{"type": "string"}},
				"required":   []any{"text"},
			},
		}},
	}
}

const openAIReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "test-model",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "logprobs": null,
    "message": {
      "role": "assistant",
      "content": "checking",
      "refusal": null,
      "tool_calls": [{
        "id": "call_9",
        "type": "function",
        "function": {"name": "alpha_echo", "arguments": "{\"text\":\"hi\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestOpenAIProvider_Complete(t *testing.T) {
	t.Parallel()

	srv, captured := captureServer(t, "/chat/completions", openAIReply)
	p := NewOpenAIProvider("test-key", srv.URL+"/", openaioption.WithMaxRetries(0))
	assert.Equal(t, ProviderOpenAI, p.Name())

	resp, err := p.Complete(t.Context(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "checking", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "call_9", Name: "alpha_echo", Arguments: map[string]any{"text": "hi"}}, resp.ToolCalls[0])
	assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 5}, resp.Usage)

	body := *captured
	assert.Equal(t, "test-model", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	// system, user, assistant, two tool results
	assert.Len(t, messages, 5)
	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

const anthropicReply = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "test-model",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "alpha_echo", "input": {"text": "hi"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 7, "output_tokens": 3}
}`

func TestAnthropicProvider_Complete(t *testing.T) {
	t.Parallel()

	srv, captured := captureServer(t, "/messages", anthropicReply)
	p := NewAnthropicProvider("test-key", srv.URL+"/", anthropicoption.WithMaxRetries(0))
	assert.Equal(t, ProviderAnthropic, p.Name())

	resp, err := p.Complete(t.Context(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "Let me check.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, ToolCall{ID: "toolu_1", Name: "alpha_echo", Arguments: map[string]any{"text": "hi"}}, resp.ToolCalls[0])
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3}, resp.Usage)

	body := *captured
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	// both tool results share one user message
	require.Len(t, messages, 3)
	last, ok := messages[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user", last["role"])
	content, ok := last["content"].([]any)
	require.True(t, ok)
	assert.Len(t, content, 2)
	assert.EqualValues(t, defaultAnthropicMaxTokens, body["max_tokens"])
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		key      string
		wantName string
		wantErr  error
	}{
		{name: "default is openai", provider: "", key: "k", wantName: ProviderOpenAI},
		{name: "openai", provider: "openai", key: "k", wantName: ProviderOpenAI},
		{name: "anthropic", provider: "anthropic", key: "k", wantName: ProviderAnthropic},
		{name: "unknown", provider: "gemini", key: "k", wantErr: ErrUnknownProvider},
		{name: "missing key", provider: "openai", wantErr: ErrMissingAPIKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewProvider(tc.provider, tc.key, "")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, p.Name())
		})
	}
}

func TestObjectSchema(t *testing.T) {
	t.Parallel()

	empty := objectSchema(nil)
	assert.Equal(t, "object", empty["type"])

	in := map[string]any{"properties": map[string]any{}}
	out := objectSchema(in)
	assert.Equal(t, "object", out["type"])
	assert.NotContains(t, in, "type")

	assert.Equal(t, []string{"a"}, requiredFields([]any{"a", 1}))
	assert.Nil(t, requiredFields(nil))
}
