package telemetry

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var s Snapshot
	require.NoError(t, conn.ReadJSON(&s))
	return s
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(Snapshot{Run: "r1", Frame: 7, Mode: "normal", Speed: 1.5}))

	for _, conn := range []*websocket.Conn{a, b} {
		s := readSnapshot(t, conn)
		assert.Equal(t, uint64(7), s.Frame)
		assert.Equal(t, "normal", s.Mode)
		assert.Equal(t, 1.5, s.Speed)
	}
}

func TestHubSendsLatestOnConnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	require.NoError(t, hub.Publish(Snapshot{Frame: 3, Events: []string{"brake"}}))
	conn := dial(t, srv)
	s := readSnapshot(t, conn)
	assert.Equal(t, uint64(3), s.Frame)
	assert.Equal(t, []string{"brake"}, s.Events)
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub(nil)
	c := &client{send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	require.NoError(t, hub.Publish(Snapshot{Frame: 1}))
	require.NoError(t, hub.Publish(Snapshot{Frame: 2}))
	assert.Equal(t, uint64(1), hub.Dropped())
	assert.Len(t, c.send, 1)
}

func TestHubSnapshotEndpoint(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, hub.Publish(Snapshot{Frame: 9, Position: [3]float64{1, 2, 3}}))
	resp, err = http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var s Snapshot
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, [3]float64{1, 2, 3}, s.Position)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.NoError(t, hub.Publish(Snapshot{Frame: 1}))
	assert.NotEqual(t, "", hub.Session().String())
}
