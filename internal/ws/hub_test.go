package ws

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
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestStream_SubscribeAndPublish(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	connected := readEvent(t, conn)
	assert.Equal(t, EventConnected, connected.Type)
	assert.NotEmpty(t, connected.ConnID)

	require.NoError(t, conn.WriteJSON(Event{Type: EventSubscribe, Symbol: "nifty"}))
	ack := readEvent(t, conn)
	assert.Equal(t, EventAck, ack.Type)
	require.NotNil(t, ack.Success)
	assert.True(t, *ack.Success)
	assert.Equal(t, []string{"NIFTY"}, hub.ActiveSymbols())

	require.NoError(t, hub.Publish("BANKNIFTY", map[string]int{"ignored": 1}))
	require.NoError(t, hub.Publish("NIFTY", map[string]float64{"pcr": 0.94}))

	ev := readEvent(t, conn)
	assert.Equal(t, EventReport, ev.Type)
	assert.Equal(t, "NIFTY", ev.Symbol)
	assert.Equal(t, map[string]any{"pcr": 0.94}, ev.Data)
}

func TestStream_AllSymbolsFromQuery(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?symbols=*,NIFTY")
	readEvent(t, conn)

	require.NoError(t, hub.Publish("NIFTY", "a"))
	require.NoError(t, hub.Publish("RELIANCE", "b"))

	// subscribed to both NIFTY and *, but receives NIFTY once
	first := readEvent(t, conn)
	second := readEvent(t, conn)
	assert.Equal(t, "NIFTY", first.Symbol)
	assert.Equal(t, "RELIANCE", second.Symbol)
}

func TestStream_PingAndUnsubscribe(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url+"?symbols=NIFTY")
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Type: EventPing}))
	assert.Equal(t, EventPong, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Event{Type: EventUnsubscribe, Symbol: "NIFTY"}))
	assert.Equal(t, EventAck, readEvent(t, conn).Type)
	assert.Empty(t, hub.ActiveSymbols())

	require.NoError(t, conn.WriteJSON(Event{Type: EventSubscribe}))
	ack := readEvent(t, conn)
	require.NotNil(t, ack.Success)
	assert.False(t, *ack.Success)
}

// newBareClient returns a registered client without a connection. A zero
// buffer makes it a slow consumer on the first publish.
func newBareClient(t *testing.T, hub *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{
		hub:    hub,
		send:   make(chan []byte, buffer),
		connID: "bare",
		groups: make(map[string]bool),
		logger: zap.NewNop(),
	}
	require.True(t, hub.registerClient(c))
	return c
}

func isClosed(hub *Hub, c *Client) bool {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return c.closed
}

func TestStream_EvictedClientMessagesAreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	c := newBareClient(t, hub, 0)
	require.True(t, hub.Subscribe(c, "NIFTY"))

	require.NoError(t, hub.Publish("NIFTY", "first"))
	require.Eventually(t, func() bool { return isClosed(hub, c) }, 2*time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() {
		c.handleMessage([]byte(`{"type":"ping"}`))
		c.handleMessage([]byte(`{"type":"subscribe","symbol":"NIFTY"}`))
		c.handleMessage([]byte(`{"type":"unsubscribe","symbol":"NIFTY"}`))
	})
	assert.Empty(t, hub.ActiveSymbols(), "closed client must not rejoin a group")

	// the hub keeps delivering after the eviction
	require.NoError(t, hub.Publish("NIFTY", "second"))
	other := newBareClient(t, hub, 1)
	require.True(t, hub.Subscribe(other, "NIFTY"))
	require.NoError(t, hub.Publish("NIFTY", "third"))
	select {
	case msg := <-other.send:
		assert.Contains(t, string(msg), "third")
	case <-time.After(2 * time.Second):
		t.Fatal("expected delivery to the remaining client")
	}
}

func TestStream_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := newBareClient(t, hub, 4)
	require.True(t, hub.Subscribe(c, "NIFTY"))

	cancel()
	<-stopped

	assert.True(t, isClosed(hub, c))
	assert.NotPanics(t, func() { c.handleMessage([]byte(`{"type":"ping"}`)) })

	unregistered := make(chan struct{})
	go func() {
		hub.unregisterClient(c)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(2 * time.Second):
		t.Fatal("unregister blocked after shutdown")
	}

	// more than the broadcast buffer holds
	for i := 0; i < 300; i++ {
		if err := hub.Publish("NIFTY", i); err != nil {
			assert.ErrorIs(t, err, ErrHubClosed)
			return
		}
	}
	t.Fatal("expected Publish to report the closed hub")
}
