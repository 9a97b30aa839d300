package session

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/session/config"
)

func TestSessionFlushesOverLoopback(t *testing.T) {
	serverConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer serverConn.Close()

	clientConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer clientConn.Close()

	cfg := config.Default()
	cfg.Timing.FlushIntervalMs = 10

	reg := prometheus.NewRegistry()
	s := New(cfg, clientConn, serverConn.LocalAddr(), reg, nil)
	s.Enqueue([]byte{1, 2, 3}, 0, 0, 0, sender.Unreliable)

	s.Run()
	defer s.Close()

	serverConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := serverConn.ReadFrom(buf)
	require.NoError(t, err)
	require.Greater(t, n, 0)
}
