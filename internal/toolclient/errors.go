package toolclient

import "errors"

var (
	ErrNoServers       = errors.New("no MCP servers configured")
	ErrConnectFailed   = errors.New("failed to connect MCP server")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrClientClosed    = errors.New("tool client is closed")
	ErrInvalidServer   = errors.New("server has neither command nor url")
	ErrDuplicateServer = errors.New("duplicate server name")
)
