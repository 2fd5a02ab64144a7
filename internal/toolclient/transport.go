package toolclient

import (
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportFactory turns one server definition into an MCP transport.
type TransportFactory func(srv mcpconfig.Server) (mcpsdk.Transport, error)

// defaultTransports starts command servers as subprocesses and reaches url
// servers over streamable HTTP.
func defaultTransports(httpClient *http.Client, terminate time.Duration) TransportFactory {
	return func(srv mcpconfig.Server) (mcpsdk.Transport, error) {
		switch {
		case srv.Command != "":
			// not CommandContext: the subprocess outlives the activation request
			cmd := exec.Command(srv.Command, srv.Args...)
			cmd.Env = os.Environ()
			for k, v := range srv.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
			return &mcpsdk.CommandTransport{
				Command:           cmd,
				TerminateDuration: terminate,
			}, nil
		case srv.URL != "":
			client := httpClient
			if len(srv.Headers) > 0 {
				client = &http.Client{
					Timeout:   httpClient.Timeout,
					Transport: &headerRoundTripper{base: httpClient.Transport, headers: srv.Headers},
				}
			}
			return &mcpsdk.StreamableClientTransport{
				Endpoint:   srv.URL,
				HTTPClient: client,
			}, nil
		default:
			return nil, ErrInvalidServer
		}
	}
}

// headerRoundTripper adds static headers (usually credentials) to every request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := h.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	for k, v := range h.headers {
		clone.Header.Set(k, v)
	}
	return base.RoundTrip(clone)
}
