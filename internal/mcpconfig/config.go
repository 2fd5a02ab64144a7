// Package mcpconfig holds the declarative tool-server configuration accepted
// at activation time.
//
// The document is kept as decoded JSON (maps, slices and scalars) so unknown
// keys survive materialization untouched. Typed server definitions are only
// derived once the document has been materialized.
package mcpconfig

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/atlanticdynamic/mcpgate/internal/interpolation"
)

// ServersKey is the required top-level key.
const ServersKey = "mcpServers"

// Config is a raw MCP configuration document.
type Config map[string]any

// Server is one entry of mcpServers. Command based servers are started as
// subprocesses speaking MCP over stdio; URL based servers are reached over
// streamable HTTP.
type Server struct {
	Name    string            `json:"-"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// IsStdio reports whether the server is launched as a subprocess.
func (s Server) IsStdio() bool {
	return s.Command != ""
}

// Validate checks that the document is non-empty and declares mcpServers.
// It does not look inside placeholder strings.
func (c Config) Validate() error {
	if len(c) == 0 {
		return ErrInvalidConfiguration
	}
	if _, ok := c[ServersKey]; !ok {
		return ErrInvalidConfiguration
	}
	return nil
}

// ServerNames returns the keys of mcpServers in sorted order.
func (c Config) ServerNames() []string {
	servers, ok := c[ServersKey].(map[string]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Materialize resolves every ${NAME} in the document through lookup.
func (c Config) Materialize(lookup interpolation.Lookup) (Config, error) {
	out, err := interpolation.MaterializeMap(c, lookup)
	if err != nil {
		return nil, err
	}
	return Config(out), nil
}

// Servers decodes mcpServers into typed definitions, sorted by name. The
// document should be materialized first.
func (c Config) Servers() ([]Server, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	raw, ok := c[ServersKey].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping", ErrInvalidConfiguration, ServersKey)
	}

	servers := make([]Server, 0, len(raw))
	for _, name := range c.ServerNames() {
		// round trip through JSON so numbers, bools and nested values in
		// args/env are rejected uniformly
		data, err := json.Marshal(raw[name])
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidServer, name, err)
		}
		var srv Server
		if err := json.Unmarshal(data, &srv); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidServer, name, err)
		}
		srv.Name = name
		if srv.Command == "" && srv.URL == "" {
			return nil, fmt.Errorf("%w %q: command or url is required", ErrInvalidServer, name)
		}
		servers = append(servers, srv)
	}
	return servers, nil
}
