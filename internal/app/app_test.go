package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Host:             "127.0.0.1",
		Port:             3000,
		LogLevel:         "DEBUG",
		DefaultVideoID:   "_zgjWHqVUKM",
		RoomGracePeriod:  0,
		JanitorInterval:  time.Minute,
		RedisHost:        "127.0.0.1",
		RedisPort:        6379,
		VideoDataTTL:     24 * time.Hour,
		VideoDataTimeout: 10 * time.Second,
		WSPingPeriod:     54 * time.Second,
		WSPongWait:       60 * time.Second,
		WSWriteWait:      10 * time.Second,
		WSMaxMessageSize: 4096,
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *AppConfig)
		wantErr bool
	}{
		{name: "valid", modify: func(*AppConfig) {}},
		{name: "zero port", modify: func(cfg *AppConfig) { cfg.Port = 0 }, wantErr: true},
		{name: "empty default video", modify: func(cfg *AppConfig) { cfg.DefaultVideoID = "" }, wantErr: true},
		{name: "negative grace period", modify: func(cfg *AppConfig) { cfg.RoomGracePeriod = -time.Second }, wantErr: true},
		{name: "grace period without janitor", modify: func(cfg *AppConfig) {
			cfg.RoomGracePeriod = time.Minute
			cfg.JanitorInterval = 0
		}, wantErr: true},
		{name: "ping slower than pong wait", modify: func(cfg *AppConfig) { cfg.WSPingPeriod = time.Minute }, wantErr: true},
		{name: "zero max message size", modify: func(cfg *AppConfig) { cfg.WSMaxMessageSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	require.NoError(t, err)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func startApp(t *testing.T, cfg *AppConfig) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	a := newApp(ctx, cfg, logger)
	go a.roomService.Run(ctx)

	server := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
		a.close()
	})

	return server.URL
}

func TestAppServesWithRedis(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	cfg := validConfig()
	cfg.RedisHost = s.Host()
	cfg.RedisPort = port

	url := startApp(t, cfg)

	resp, err := http.Get(url + "/api/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/api/v1/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(&domain.Message{
		Type:    domain.MsgTypeJoin,
		Payload: &domain.JoinInput{Room: "r1", Username: "alice"},
	}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string          `json:"type"`
		Payload domain.RoomData `json:"payload"`
	}
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, domain.MsgTypeRoomData, msg.Type)
	assert.Equal(t, "_zgjWHqVUKM", msg.Payload.VideoID)
}

func TestAppServesWithoutRedis(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	s.Close()

	cfg := validConfig()
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = port

	url := startApp(t, cfg)

	resp, err := http.Get(url + "/api/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := miniredis.RunT(t)
	redisPort, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := validConfig()
	cfg.Port = port
	cfg.LogLevel = "ERROR"
	cfg.RedisHost = s.Host()
	cfg.RedisPort = redisPort
	cfg.RoomGracePeriod = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg)
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
