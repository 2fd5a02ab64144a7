package agent

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atlanticdynamic/mcpgate/internal/toolclient"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) request(t *testing.T, i int) Request {
	t.Helper()
	require.Greater(t, len(m.Calls), i)
	req, ok := m.Calls[i].Arguments.Get(1).(Request)
	require.True(t, ok)
	return req
}

type fakeTools struct {
	results     map[string]string
	errs        map[string]error
	discoverErr error
	calls       []string
}

func (f *fakeTools) Tools(context.Context) ([]toolclient.Tool, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return []toolclient.Tool{
		{
			Name:        "alpha_ping",
			Server:      "alpha",
			Remote:      "ping",
			Description: "Replies with pong",
			InputSchema: map[string]any{"type": "object"},
		},
	}, nil
}

func (f *fakeTools) CallTool(_ context.Context, name string, _ map[string]any) (string, bool, error) {
	f.calls = append(f.calls, name)
	if err, ok := f.errs[name]; ok {
		return "", false, err
	}
	return f.results[name], false, nil
}

func quietLogger() Option {
	return WithLogHandler(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func toolTurn(id string) *Response {
	return &Response{
		ToolCalls: []ToolCall{{ID: id, Name: "alpha_ping", Arguments: map[string]any{}}},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires provider", func(t *testing.T) {
		_, err := New(nil, &fakeTools{})
		require.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("requires tools", func(t *testing.T) {
		_, err := New(&mockProvider{}, nil)
		require.ErrorIs(t, err, ErrNoTools)
	})

	t.Run("options applied", func(t *testing.T) {
		a, err := New(&mockProvider{}, &fakeTools{}, WithModel("m"), WithMaxSteps(7), WithMaxSteps(0))
		require.NoError(t, err)
		assert.Equal(t, "m", a.model)
		assert.Equal(t, 7, a.MaxSteps())
	})
}

func TestAgent_Run(t *testing.T) {
	t.Parallel()

	t.Run("answer without tools", func(t *testing.T) {
		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "hello"}, nil).Once()

		a, err := New(p, &fakeTools{}, WithModel("test-model"), quietLogger())
		require.NoError(t, err)

		out, err := a.Run(t.Context(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)

		req := p.request(t, 0)
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, defaultSystemPrompt, req.System)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "alpha_ping", req.Tools[0].Name)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, req.Messages[0])
		p.AssertExpectations(t)
	})

	t.Run("tool results are fed back", func(t *testing.T) {
		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(toolTurn("call-1"), nil).Once()
		p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "got pong"}, nil).Once()

		tools := &fakeTools{results: map[string]string{"alpha_ping": "pong"}}
		a, err := New(p, tools, quietLogger())
		require.NoError(t, err)

		out, err := a.Run(t.Context(), "ping please")
		require.NoError(t, err)
		assert.Equal(t, "got pong", out)
		assert.Equal(t, []string{"alpha_ping"}, tools.calls)

		second := p.request(t, 1)
		require.Len(t, second.Messages, 3)
		assert.Equal(t, RoleAssistant, second.Messages[1].Role)
		assert.Equal(t, Message{Role: RoleTool, Content: "pong", ToolCallID: "call-1"}, second.Messages[2])
	})

	t.Run("tool failure reported to model", func(t *testing.T) {
		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(toolTurn("call-1"), nil).Once()
		p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "sorry"}, nil).Once()

		tools := &fakeTools{errs: map[string]error{"alpha_ping": errors.New("boom")}}
		a, err := New(p, tools, quietLogger())
		require.NoError(t, err)

		out, err := a.Run(t.Context(), "ping")
		require.NoError(t, err)
		assert.Equal(t, "sorry", out)

		result := p.request(t, 1).Messages[2]
		assert.Equal(t, "Error: boom", result.Content)
		assert.True(t, result.IsError)
	})

	t.Run("step budget exhausted", func(t *testing.T) {
		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(toolTurn("loop"), nil)

		a, err := New(p, &fakeTools{results: map[string]string{"alpha_ping": "pong"}}, WithMaxSteps(3), quietLogger())
		require.NoError(t, err)

		_, err = a.Run(t.Context(), "loop forever")
		require.ErrorIs(t, err, ErrMaxStepsExceeded)
		p.AssertNumberOfCalls(t, "Complete", 3)
		assert.Empty(t, a.History())
	})

	t.Run("provider failure", func(t *testing.T) {
		p := &mockProvider{}
		upstream := errors.New("rate limited")
		p.On("Complete", mock.Anything, mock.Anything).Return(nil, upstream).Once()

		a, err := New(p, &fakeTools{}, quietLogger())
		require.NoError(t, err)

		_, err = a.Run(t.Context(), "hi")
		require.ErrorIs(t, err, upstream)
		assert.Contains(t, err.Error(), "step 1")
	})

	t.Run("tool discovery failure", func(t *testing.T) {
		p := &mockProvider{}
		down := errors.New("server exited")
		a, err := New(p, &fakeTools{discoverErr: down}, quietLogger())
		require.NoError(t, err)

		_, err = a.Run(t.Context(), "hi")
		require.ErrorIs(t, err, down)
		p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := &mockProvider{}
		a, err := New(p, &fakeTools{}, quietLogger())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err = a.Run(ctx, "hi")
		require.ErrorIs(t, err, context.Canceled)
		p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})
}

func TestAgent_Memory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		memory       bool
		wantMessages int
	}{
		{name: "history carried into next run", memory: true, wantMessages: 3},
		{name: "memory disabled", memory: false, wantMessages: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := &mockProvider{}
			p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "first"}, nil).Once()
			p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "second"}, nil).Once()

			a, err := New(p, &fakeTools{}, WithMemory(tc.memory), quietLogger())
			require.NoError(t, err)

			_, err = a.Run(t.Context(), "one")
			require.NoError(t, err)
			_, err = a.Run(t.Context(), "two")
			require.NoError(t, err)

			assert.Len(t, p.request(t, 1).Messages, tc.wantMessages)
		})
	}

	t.Run("reset clears history", func(t *testing.T) {
		t.Parallel()

		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "ok"}, nil)

		a, err := New(p, &fakeTools{}, quietLogger())
		require.NoError(t, err)
		_, err = a.Run(t.Context(), "one")
		require.NoError(t, err)
		assert.Len(t, a.History(), 2)

		a.Reset()
		assert.Empty(t, a.History())
	})
}

func TestAgent_HistoryLimit(t *testing.T) {
	t.Parallel()

	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything).Return(toolTurn("call-1"), nil).Once()
	p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "first"}, nil).Once()
	p.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "second"}, nil).Once()

	a, err := New(p, &fakeTools{results: map[string]string{"alpha_ping": "pong"}}, WithHistoryLimit(3), quietLogger())
	require.NoError(t, err)

	_, err = a.Run(t.Context(), "one")
	require.NoError(t, err)
	// user, assistant tool call, tool result, assistant answer: the only user
	// turn is outside the last three messages
	assert.Empty(t, a.History())

	_, err = a.Run(t.Context(), "two")
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "two"},
		{Role: RoleAssistant, Content: "second"},
	}, a.History())
}

func TestTrimHistory(t *testing.T) {
	t.Parallel()

	conversation := []Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "1"}}},
		{Role: RoleTool, ToolCallID: "1"},
		{Role: RoleAssistant, Content: "d"},
	}

	tests := []struct {
		name  string
		limit int
		want  []Message
	}{
		{name: "under limit", limit: 10, want: conversation},
		{name: "no limit", limit: 0, want: conversation},
		{name: "cut at user turn", limit: 5, want: conversation[2:]},
		{name: "no user turn in window", limit: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, trimHistory(conversation, tt.limit))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}
