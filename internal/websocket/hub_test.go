package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmxcli/internal/config"
	"cmxcli/internal/risk"
	"cmxcli/internal/snapshot"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	handler := NewHandler(hub, config.Default().WebSocket, []string{"*"}, testLogger())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, have %d", want, hub.ClientCount())
}

func TestHubGreetsNewClient(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
}

func TestHubBroadcastsRiskUpdates(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	readMessage(t, conn) // greeting

	waitForClients(t, hub, 1)

	rows := []snapshot.RiskScoreRow{
		{
			Metal:          snapshot.MetalSilver,
			Date:           time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
			Composite:      81,
			Level:          risk.LevelExtreme,
			DominantFactor: risk.FactorPaperPhysical,
			Commentary:     "Paper leverage stress.",
		},
	}
	hub.BroadcastRiskUpdate(rows)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeRiskUpdate, msg["type"])

	data, ok := msg["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)

	row, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "silver", row["metal"])
	assert.Equal(t, float64(81), row["composite"])
	assert.Equal(t, "EXTREME", row["level"])
}

func TestHubClientCountTracksDisconnects(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	defer hub.Stop()

	conn := dialTestHub(t, hub)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestKeepaliveTimings(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.WebSocketConfig
		pongWait   time.Duration
		pingPeriod time.Duration
	}{
		{
			name:       "configured values pass through",
			cfg:        config.WebSocketConfig{PongWait: 20 * time.Second, PingPeriod: 5 * time.Second},
			pongWait:   20 * time.Second,
			pingPeriod: 5 * time.Second,
		},
		{
			name:       "zero config falls back to defaults",
			cfg:        config.WebSocketConfig{},
			pongWait:   60 * time.Second,
			pingPeriod: 54 * time.Second,
		},
		{
			name:       "ping period is clamped below pong wait",
			cfg:        config.WebSocketConfig{PongWait: 10 * time.Second, PingPeriod: 30 * time.Second},
			pongWait:   10 * time.Second,
			pingPeriod: 9 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pongWait, pingPeriod := keepaliveTimings(tt.cfg)
			assert.Equal(t, tt.pongWait, pongWait)
			assert.Equal(t, tt.pingPeriod, pingPeriod)
		})
	}
}

func TestNewHandlerAppliesBufferConfig(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	cfg := config.WebSocketConfig{ReadBufferSize: 2048, WriteBufferSize: 4096}

	handler := NewHandler(hub, cfg, nil, testLogger())
	assert.Equal(t, 2048, handler.upgrader.ReadBufferSize)
	assert.Equal(t, 4096, handler.upgrader.WriteBufferSize)
}

func TestHubStopDuringBroadcasts(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()

	conn := dialTestHub(t, hub)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	// Hammer the broadcast path while shutting down; Stop must wait for
	// the run loop before client channels are closed.
	stop := make(chan struct{})
	go func() {
		row := snapshot.RiskScoreRow{Metal: snapshot.MetalGold, Composite: 50}
		for {
			select {
			case <-stop:
				return
			default:
				hub.BroadcastRiskUpdate([]snapshot.RiskScoreRow{row})
			}
		}
	}()

	hub.Stop()
	close(stop)

	assert.Equal(t, 0, hub.ClientCount())
}
