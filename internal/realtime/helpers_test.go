package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/store"
)

const testPassword = "letmein"

func setupAdapter(t *testing.T) *store.Adapter {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB))

	adapter, err := store.NewAdapter(context.Background(), db.NewRepositories(database))
	require.NoError(t, err)
	t.Cleanup(func() {
		adapter.Close()
		_ = database.Close()
	})
	return adapter
}

func setupAuth(t *testing.T, adapter *store.Adapter) *auth.Service {
	t.Helper()
	passwords := auth.NewPasswords(adapter, testPassword)
	t.Cleanup(passwords.Close)
	return auth.NewService(auth.NewTokenService([]byte("test-secret"), time.Hour), passwords)
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func serve(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// readUntil reads frames until match accepts one.
func readUntil[T any](t *testing.T, ws *websocket.Conn, match func(T) bool) T {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
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

func send(t *testing.T, ws *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}
