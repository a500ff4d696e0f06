package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024

	sendBufferSize = 64
)

// Message types exchanged on the stream.
const (
	EventConnected   = "connected"
	EventAck         = "ack"
	EventPong        = "pong"
	EventReport      = "report"
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventPing        = "ping"
)

// Event is the JSON envelope for every stream message.
type Event struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	ConnID  string `json:"conn_id,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is one stream connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	connID string
	groups map[string]bool // guarded by hub.mu
	closed bool            // guarded by hub.mu
	logger *zap.Logger
}

// ServeWS upgrades the request and registers the connection. A "symbols"
// query parameter subscribes immediately, e.g. ?symbols=NIFTY,BANKNIFTY.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		groups: make(map[string]bool),
		logger: h.logger,
	}

	if !h.registerClient(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}
	h.trySend(client, mustEncode(Event{Type: EventConnected, ConnID: client.connID}))

	for _, symbol := range splitSymbols(r.URL.Query().Get("symbols")) {
		h.Subscribe(client, symbol)
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var msg Event
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("failed to parse stream message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		return
	}

	switch msg.Type {
	case EventSubscribe:
		ok := msg.Symbol != "" && c.hub.Subscribe(c, msg.Symbol)
		c.reply(Event{Type: EventAck, Symbol: msg.Symbol, Success: &ok})

	case EventUnsubscribe:
		c.hub.Unsubscribe(c, msg.Symbol)
		ok := true
		c.reply(Event{Type: EventAck, Symbol: msg.Symbol, Success: &ok})

	case EventPing:
		c.reply(Event{Type: EventPong})
	}
}

func (c *Client) reply(e Event) {
	if !c.hub.trySend(c, mustEncode(e)) {
		c.logger.Debug("client closed or buffer full, dropping reply", zap.String("connID", c.connID))
	}
}

// mustEncode marshals envelopes whose fields always encode.
func mustEncode(e Event) []byte {
	b, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return b
}

func splitSymbols(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
