//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/streamhub/internal/config"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/server"
)

const adminPassword = "letmein"

// instance is one running server process over a shared database file.
type instance struct {
	srv  *server.Server
	http *httptest.Server
}

func testConfig(dbPath, redisAddr string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{Path: dbPath, ConnectionTimeout: 5 * time.Second, EnableWAL: true},
		Logging:  config.LoggingConfig{Level: "info"},
		Auth: config.AuthConfig{
			DefaultPassword: adminPassword,
			TokenSecret:     "integration-secret",
			TokenTTL:        time.Hour,
		},
		Playback: config.PlaybackConfig{
			ErrorSkipDelay:    3 * time.Second,
			WatchdogInterval:  5 * time.Second,
			ControlsHideDelay: 3 * time.Second,
			UnmuteDelay:       800 * time.Millisecond,
			PreferredQuality:  "hd1080",
		},
		Redis: config.RedisConfig{Addr: redisAddr, Channel: "streamhub:playlist"},
	}
}

// tempDBPath returns a migrated database file shared by every instance of a test.
func tempDBPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamhub.db")

	database, err := db.New(path)
	require.NoError(t, err, "Failed to create database")
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB), "Failed to run migrations")
	require.NoError(t, database.Close())
	return path
}

// startInstance runs a server the way main does, with httptest in place of
// ListenAndServe.
func startInstance(t *testing.T, cfg *config.Config) *instance {
	t.Helper()

	database, err := db.New(cfg.Database.Path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := server.New(ctx, cfg, database)
	require.NoError(t, err)
	require.NoError(t, srv.StartBackground(ctx))

	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		hs.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
		_ = database.Close()
	})
	return &instance{srv: srv, http: hs}
}

func (in *instance) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, in.http.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := in.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (in *instance) login(t *testing.T) string {
	t.Helper()
	resp := in.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var identity struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	require.NotEmpty(t, identity.Token)
	return identity.Token
}

func (in *instance) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(in.http.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readUntil reads frames until match accepts one.
func readUntil[T any](t *testing.T, ws *websocket.Conn, match func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, ws.SetReadDeadline(deadline))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err, "no matching message before deadline")
		var v T
		require.NoError(t, json.Unmarshal(data, &v))
		if match(v) {
			return v
		}
	}
}
