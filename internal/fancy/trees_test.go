package fancy_test

import (
	"testing"

	"github.com/atlanticdynamic/mcpgate/internal/fancy"
	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	"github.com/stretchr/testify/assert"
)

func TestServersTree(t *testing.T) {
	t.Parallel()

	servers := []mcpconfig.Server{
		{
			Name:    "filesystem",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"},
			Env:     map[string]string{"TOKEN": "secret-value", "HOME": "${HOME}"},
		},
		{
			Name:    "search",
			URL:     "https://mcp.example.com/mcp",
			Headers: map[string]string{"Authorization": "Bearer abc"},
		},
	}

	out := fancy.ServersTree("config.json", servers).String()

	assert.Contains(t, out, "config.json")
	assert.Contains(t, out, "filesystem")
	assert.Contains(t, out, "npx -y @modelcontextprotocol/server-filesystem /tmp")
	assert.Contains(t, out, "search")
	assert.Contains(t, out, "https://mcp.example.com/mcp")
	assert.Contains(t, out, "env")
	assert.Contains(t, out, "headers")
	assert.Contains(t, out, "${HOME}")
	assert.NotContains(t, out, "secret-value")
	assert.NotContains(t, out, "Bearer abc")
}

func TestServersTree_Empty(t *testing.T) {
	t.Parallel()
	out := fancy.ServersTree("empty", nil).String()
	assert.Contains(t, out, "empty")
}

func TestBranchNode(t *testing.T) {
	t.Parallel()
	out := fancy.BranchNode("Sessions", "(2)").String()
	assert.Contains(t, out, "Sessions")
	assert.Contains(t, out, "(2)")
}

func TestMaskValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "sk-123", want: "****"},
		{in: "${API_KEY}", want: "${API_KEY}"},
		{in: "prefix-${API_KEY}", want: "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fancy.MaskValue(tt.in), tt.in)
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "short", max: 10, want: "short"},
		{name: "exact", in: "0123456789", max: 10, want: "0123456789"},
		{name: "long", in: "0123456789abc", max: 10, want: "0123456..."},
		{name: "multibyte", in: "héllo wörld", max: 8, want: "héllo..."},
		{name: "tiny limit", in: "abcdef", max: 2, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fancy.TruncateString(tt.in, tt.max))
		})
	}
}

func TestTextHelpers(t *testing.T) {
	t.Parallel()
	for _, fn := range []func(string) string{
		fancy.ServerText, fancy.CommandText, fancy.URLText, fancy.KeyText,
		fancy.ValidText, fancy.ErrorText, fancy.PathText,
	} {
		assert.Contains(t, fn("value"), "value")
	}
}
