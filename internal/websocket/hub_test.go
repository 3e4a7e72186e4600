package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSession struct {
	client *Client
	closed *atomic.Int32
}

func (s *echoSession) Handle(msgType string, payload json.RawMessage) error {
	return s.client.Send(msgType+":ack", payload)
}

func (s *echoSession) Close() { s.closed.Add(1) }

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func startHub(t *testing.T) (*Hub, string, *atomic.Int32) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	closed := &atomic.Int32{}
	hub := NewHub(zerolog.Nop())
	hub.SetSessionFactory(func(c *Client) SessionHandler {
		return &echoSession{client: c, closed: closed}
	})
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", closed
}

func dial(t *testing.T, hub *Hub, url string) *websocket.Conn {
	t.Helper()
	before := hub.ClientCount()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == before+1 }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_RoutesMessagesToClientSession(t *testing.T) {
	hub, url, _ := startHub(t)
	a := dial(t, hub, url)
	b := dial(t, hub, url)

	require.NoError(t, a.WriteJSON(map[string]any{"type": "search:query", "payload": map[string]string{"text": "alien"}}))

	msg := read(t, a)
	assert.Equal(t, "search:query:ack", msg.Type)
	assert.JSONEq(t, `{"text":"alien"}`, string(msg.Payload))

	// b has its own session and sees nothing of a's traffic.
	require.NoError(t, hub.Broadcast("health:update", map[string]string{"status": "ok"}))
	assert.Equal(t, "health:update", read(t, b).Type)
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub, url, _ := startHub(t)
	conns := []*websocket.Conn{dial(t, hub, url), dial(t, hub, url)}

	require.NoError(t, hub.Broadcast("logs:entry", map[string]string{"message": "hello"}))

	for _, conn := range conns {
		msg := read(t, conn)
		assert.Equal(t, "logs:entry", msg.Type)
		assert.JSONEq(t, `{"message":"hello"}`, string(msg.Payload))
	}
}

func TestHub_MalformedMessage(t *testing.T) {
	hub, url, _ := startHub(t)
	conn := dial(t, hub, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "session:error", read(t, conn).Type)
}

func TestHub_DisconnectClosesSession(t *testing.T) {
	hub, url, closed := startHub(t)
	conn := dial(t, hub, url)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && closed.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_SendAfterShutdown(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}
	require.NoError(t, c.Send("a", nil))
	assert.ErrorIs(t, c.Send("b", nil), ErrSendBufferFull)

	c.shutdown()
	c.shutdown()
	assert.ErrorIs(t, c.Send("c", nil), ErrClientClosed)
}
