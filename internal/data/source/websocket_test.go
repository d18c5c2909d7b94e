package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-sensor-monitor/internal/core/model"
)

func relayServer(t *testing.T, messages []string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket(t *testing.T) {
	url := relayServer(t, []string{
		`{"name":"x","value":1.5}`,
		`{"name":"y","value":-2}`,
		`not json`,
		`{"name":"w","value":3}`,
		`{"name":"x"}`,
		`{"values":{"z":9.8,"x":2}}`,
	})

	ws, err := NewWebSocket(context.Background(), WebSocketConfig{URL: url, Columns: xyz, DialTimeout: time.Second})
	require.NoError(t, err)
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	values, err := ws.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, -2.0, values["y"])
	assert.Equal(t, 9.8, values["z"])

	require.Eventually(t, func() bool {
		messages, _ := ws.Stats()
		return messages == 6
	}, time.Second, 5*time.Millisecond)
	_, rejected := ws.Stats()
	assert.Equal(t, int64(3), rejected)

	values, err = ws.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, values["x"])
}

func TestWebSocket_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := NewWebSocket(context.Background(), WebSocketConfig{URL: url, Columns: xyz, DialTimeout: time.Second})
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)

	_, err = NewWebSocket(context.Background(), WebSocketConfig{Columns: xyz})
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}
