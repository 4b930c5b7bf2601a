package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"odil-be/internal/logger"
	"odil-be/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	reg := metrics.NewRegistry()
	hub := NewHub(reg)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	defer b.Close()

	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), reg.Gauge(metrics.RealtimeClients).Load())

	hub.CatalogueChanged()

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, TypeCatalogueChanged, msg.Type)
		assert.False(t, msg.At.IsZero())
	}

	a.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), reg.Gauge(metrics.RealtimeClients).Load())

	hub.Close()
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, int64(0), reg.Gauge(metrics.RealtimeClients).Load())
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	hub := NewHub(metrics.NewRegistry())
	rec := httptest.NewRecorder()
	hub.ServeWS(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.Len())
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(metrics.NewRegistry())
	c := &client{send: make(chan []byte, 1)}
	hub.register(c)

	hub.Broadcast(Message{Type: "a"})
	hub.Broadcast(Message{Type: "b"})

	assert.Equal(t, 0, hub.Len())
	_, open := <-c.send
	assert.True(t, open)
	_, open = <-c.send
	assert.False(t, open)
}

func TestHub_CheckOrigin(t *testing.T) {
	t.Cleanup(logger.Replace(zap.NewNop()))

	hub := NewHub(metrics.NewRegistry(), "https://shop.example")
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tests := []struct {
		name   string
		origin string
		ok     bool
	}{
		{"No origin", "", true},
		{"Storefront", "https://shop.example", true},
		{"Same host", srv.URL, true},
		{"Foreign site", "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if !tt.ok {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			conn.Close()
		})
	}
}
