package api

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"lol-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangupServer accepts connections, reads the request and closes without
// answering. It reports how many connections reached it.
func hangupServer(t *testing.T) (string, *atomic.Int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	var accepted atomic.Int32
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			buf := make([]byte, 4096)
			_ = conn.SetReadDeadline(time.Now().Add(time.Second))
			_, _ = conn.Read(buf)
			conn.Close()
		}
	}()
	return ln.Addr().String(), &accepted
}

func TestFetch_RealClientAttemptsMatchRetryCount(t *testing.T) {
	addr, accepted := hangupServer(t)
	cfg := &config.Config{
		RiotAPIKey:   "RGAPI-test",
		RiotRegion:   "europe",
		RiotPlatform: "euw1",
		MaxRetries:   3,
		RetryBase:    time.Millisecond,
	}
	client := NewRiotClient(cfg, zerolog.Nop())

	_, err := client.Fetch(context.Background(), "GET", fmt.Sprintf("http://%s/lol/status", addr), nil)
	require.Error(t, err)

	assert.Equal(t, int32(3), accepted.Load())
}

func TestFetch_RealClientSingleAttempt(t *testing.T) {
	addr, accepted := hangupServer(t)
	cfg := &config.Config{RiotAPIKey: "RGAPI-test", MaxRetries: 1, RetryBase: time.Millisecond}
	client := NewRiotClient(cfg, zerolog.Nop())

	_, err := client.Fetch(context.Background(), "GET", fmt.Sprintf("http://%s/lol/status", addr), nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), accepted.Load())
}
