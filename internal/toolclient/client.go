// Package toolclient connects to the MCP servers of a materialized
// configuration and exposes their tools behind one flat namespace.
//
// It is a thin layer around the MCP Go SDK so the rest of the service does
// not depend on SDK types directly.
package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const (
	defaultImplementationName = "mcpgate"
	maxToolNameLength         = 64
)

// Version is announced to MCP servers during initialization.
var Version = "dev"

var invalidToolChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Tool is one tool exposed by a connected server.
type Tool struct {
	// Name is unique across all servers of the client: <server>_<tool>.
	Name        string
	Server      string
	Remote      string
	Description string
	InputSchema map[string]any
}

// serverSession is the subset of *mcpsdk.ClientSession used here.
type serverSession interface {
	ListTools(ctx context.Context, params *mcpsdk.ListToolsParams) (*mcpsdk.ListToolsResult, error)
	CallTool(ctx context.Context, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error)
	Close() error
}

// Client owns one MCP session per configured server. Servers are started on
// first use, not when the Client is built.
type Client struct {
	logger            *slog.Logger
	impl              *mcpsdk.Implementation
	transports        TransportFactory
	httpClient        *http.Client
	terminateDuration time.Duration
	servers           []mcpconfig.Server

	// connectMu serializes connection attempts.
	connectMu sync.Mutex
	connected bool

	mu       sync.RWMutex
	sessions map[string]serverSession
	tools    []Tool
	byName   map[string]Tool
	closed   bool
}

// New prepares a Client for servers without starting or contacting any of
// them. The first Tools or CallTool call connects every server and discovers
// its tools.
func New(servers []mcpconfig.Server, opts ...Option) (*Client, error) {
	if len(servers) == 0 {
		return nil, ErrNoServers
	}
	seen := make(map[string]struct{}, len(servers))
	for _, srv := range servers {
		if _, dup := seen[srv.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateServer, srv.Name)
		}
		seen[srv.Name] = struct{}{}
		if srv.Command == "" && srv.URL == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidServer, srv.Name)
		}
	}

	c := &Client{
		logger:            slog.Default().WithGroup("toolclient.Client"),
		impl:              &mcpsdk.Implementation{Name: defaultImplementationName, Version: Version},
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		terminateDuration: 5 * time.Second,
		servers:           servers,
		sessions:          make(map[string]serverSession, len(servers)),
		byName:            make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transports == nil {
		c.transports = defaultTransports(c.httpClient, c.terminateDuration)
	}
	return c, nil
}

// ensureConnected opens a session to every server and discovers its tools.
// Either every server connects or none stay open; a failed attempt is
// retried on the next call.
func (c *Client) ensureConnected(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClientClosed
	}
	if c.connected {
		return nil
	}

	sdkClient := mcpsdk.NewClient(c.impl, nil)
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range c.servers {
		g.Go(func() error {
			return c.connectServer(gctx, sdkClient, srv)
		})
	}
	if err := g.Wait(); err != nil {
		c.closeSessions(c.resetSessions())
		return err
	}

	c.mu.Lock()
	sort.Slice(c.tools, func(i, j int) bool { return c.tools[i].Name < c.tools[j].Name })
	toolCount := len(c.tools)
	c.mu.Unlock()
	c.connected = true

	c.logger.Debug("Tool client connected", "servers", len(c.servers), "tools", toolCount)
	return nil
}

func (c *Client) connectServer(ctx context.Context, sdkClient *mcpsdk.Client, srv mcpconfig.Server) error {
	transport, err := c.transports(srv)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrConnectFailed, srv.Name, err)
	}

	cs, err := sdkClient.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrConnectFailed, srv.Name, err)
	}

	// register before listing so a failed listing still closes the session
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = cs.Close()
		return ErrClientClosed
	}
	c.sessions[srv.Name] = cs
	c.mu.Unlock()

	listed, err := cs.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("%w %q: list tools: %w", ErrConnectFailed, srv.Name, err)
	}

	tools := make([]Tool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		if t == nil || t.Name == "" {
			continue
		}
		tools = append(tools, Tool{
			Name:        qualifiedName(srv.Name, t.Name),
			Server:      srv.Name,
			Remote:      t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tools {
		c.tools = append(c.tools, t)
		c.byName[t.Name] = t
	}
	c.logger.Info("MCP server connected", "server", srv.Name, "tools", len(tools))
	return nil
}

// Tools connects on first use and returns the discovered tools sorted by name.
func (c *Client) Tools(ctx context.Context) ([]Tool, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out, nil
}

// CallTool invokes a tool by its qualified name. A tool that reports failure
// is not an error: its text is returned with isError set so the caller can
// hand it back to the model.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	if err := c.ensureConnected(ctx); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return "", false, ErrClientClosed
	}
	tool, ok := c.byName[name]
	var cs serverSession
	if ok {
		cs = c.sessions[tool.Server]
	}
	c.mu.RUnlock()

	if !ok || cs == nil {
		return "", false, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	c.logger.Debug("Calling tool", "tool", tool.Remote, "server", tool.Server)
	result, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      tool.Remote,
		Arguments: args,
	})
	if err != nil {
		return "", false, fmt.Errorf("call %s on %s: %w", tool.Remote, tool.Server, err)
	}
	return flattenContent(result.Content), result.IsError, nil
}

// Close ends every server session. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.closeSessions(c.resetSessions())
}

// resetSessions forgets every session and discovered tool, returning the
// sessions so the caller can close them outside the lock.
func (c *Client) resetSessions() map[string]serverSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := c.sessions
	c.sessions = map[string]serverSession{}
	c.tools = nil
	c.byName = map[string]Tool{}
	return sessions
}

func (c *Client) closeSessions(sessions map[string]serverSession) error {
	var errs []error
	for name, cs := range sessions {
		if err := cs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	if len(sessions) > 0 {
		c.logger.Debug("Server sessions closed", "servers", len(sessions))
	}
	return errors.Join(errs...)
}

func qualifiedName(server, tool string) string {
	name := invalidToolChars.ReplaceAllString(server+"_"+tool, "_")
	if len(name) > maxToolNameLength {
		name = name[:maxToolNameLength]
	}
	return name
}

func schemaToMap(schema any) map[string]any {
	fallback := map[string]any{"type": "object", "properties": map[string]any{}}
	if schema == nil {
		return fallback
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return fallback
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return fallback
	}
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	return out
}

func flattenContent(content []mcpsdk.Content) string {
	parts := make([]string, 0, len(content))
	for _, block := range content {
		switch v := block.(type) {
		case *mcpsdk.TextContent:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		default:
			data, err := json.Marshal(v)
			if err != nil {
				parts = append(parts, "unsupported content type")
				continue
			}
			parts = append(parts, string(data))
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		out = "(no output)"
	}
	return out
}
