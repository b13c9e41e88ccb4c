package cmd

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/quadwarp/internal/server"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServeCommand(t *testing.T) {
	port := freePort(t)
	base := "http://127.0.0.1:" + strconv.Itoa(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		stdout string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stdout, _, err := runContext(t, ctx, "serve", "--host", "127.0.0.1", "--port", strconv.Itoa(port),
			"--shutdown-timeout", "2", "--rate-limit-enabled")
		done <- result{stdout, err}
	}()

	client := &http.Client{Timeout: time.Second}
	var health server.HealthResponse
	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&health) == nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "healthy", health.Status)

	resp, err := client.Post(base+"/v1/estimate", "application/json", strings.NewReader(
		`{"source":[{"x":0,"y":0},{"x":1,"y":0},{"x":1,"y":1},{"x":0,"y":1}],
		  "destination":[{"x":0,"y":0},{"x":2,"y":0},{"x":2,"y":2},{"x":0,"y":2}]}`))
	require.NoError(t, err)
	var est server.EstimateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&est))
	_ = resp.Body.Close()
	assert.True(t, est.Success)

	cancel()
	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Server listening on http://127.0.0.1:"+strconv.Itoa(port))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeCommand_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	_, _, err = run(t, "serve", "--host", "127.0.0.1", "--port", strconv.Itoa(port))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestServeCommand_InvalidPort(t *testing.T) {
	_, _, err := run(t, "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}
