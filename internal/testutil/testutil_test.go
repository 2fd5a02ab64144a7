package testutil

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreePort(t *testing.T) {
	seen := make(map[int]bool)
	for range 5 {
		p := FreePort(t)
		assert.False(t, seen[p], "port %d handed out twice", p)
		seen[p] = true
	}

	addr := FreeAddress(t)
	l, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestLogBuffer(t *testing.T) {
	t.Parallel()

	var b LogBuffer
	logger := b.Logger()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			logger.Debug("Session created", "id", "session-1")
		})
	}
	wg.Wait()

	assert.True(t, b.Contains("Session created"))
	assert.True(t, b.Contains("id=session-1"))
	assert.False(t, b.Contains("Session closed"))
}
