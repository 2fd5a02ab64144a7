// Package testutil holds helpers shared by mcpgate tests.
package testutil

import (
	"net"
	"strconv"
	"sync"
	"testing"
)

var (
	portMu    sync.Mutex
	usedPorts = make(map[int]struct{})
)

// FreePort returns a loopback TCP port that was free a moment ago and has
// not been handed out before in this test binary.
func FreePort(t *testing.T) int {
	t.Helper()
	portMu.Lock()
	defer portMu.Unlock()

	for range 20 {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to get random port: %v", err)
		}
		port := l.Addr().(*net.TCPAddr).Port
		if err := l.Close(); err != nil {
			t.Fatalf("failed to close listener: %v", err)
		}
		if _, seen := usedPorts[port]; seen {
			continue
		}
		usedPorts[port] = struct{}{}
		return port
	}
	t.Fatal("no unused port found")
	return 0
}

// FreeAddress is FreePort as a "127.0.0.1:port" listen address.
func FreeAddress(t *testing.T) string {
	t.Helper()
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(FreePort(t)))
}
