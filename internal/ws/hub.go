package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// AllSymbols is the subscription that receives every published report.
const AllSymbols = "*"

// ErrHubClosed is returned by Publish once the hub has shut down.
var ErrHubClosed = errors.New("stream hub closed")

// Hub tracks stream connections and their symbol subscriptions.
type Hub struct {
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // symbol -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *groupMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

type groupMessage struct {
	symbol  string
	payload []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *groupMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stream hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("stream client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// registerClient hands client to Run. It returns false after shutdown.
func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// unregisterClient hands client to Run, or returns if the hub is gone.
func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.closeClient(client)
	h.logger.Debug("stream client unregistered", zap.String("connID", client.connID))
}

// closeClient drops every subscription and closes send. Must be called with
// mu held for writing.
func (h *Hub) closeClient(client *Client) {
	for symbol := range client.groups {
		h.leave(client, symbol)
	}
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

// deliver sends to subscribers of the symbol and of AllSymbols, once each.
// Clients whose buffer is full are removed.
func (h *Hub) deliver(msg *groupMessage) {
	var slow []*Client

	h.mu.RLock()
	targets := make(map[*Client]bool)
	for client := range h.groups[msg.symbol] {
		targets[client] = true
	}
	for client := range h.groups[AllSymbols] {
		targets[client] = true
	}
	for client := range targets {
		select {
		case client.send <- msg.payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Debug("dropping slow stream client", zap.String("connID", client.connID))
		h.remove(client)
	}
}

// trySend queues payload without blocking. Closed clients and full buffers
// drop it.
func (h *Hub) trySend(client *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client.closed {
		return false
	}
	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.closeClient(client)
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
	close(h.done)
}

// Subscribe adds a client to a symbol's group. Closed clients are refused.
func (h *Hub) Subscribe(client *Client, symbol string) bool {
	symbol = strings.ToUpper(symbol)

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}
	if h.groups[symbol] == nil {
		h.groups[symbol] = make(map[*Client]bool)
	}
	h.groups[symbol][client] = true
	client.groups[symbol] = true

	h.logger.Debug("stream client subscribed",
		zap.String("connID", client.connID),
		zap.String("symbol", symbol),
	)
	return true
}

// Unsubscribe removes a client from a symbol's group.
func (h *Hub) Unsubscribe(client *Client, symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(client, strings.ToUpper(symbol))
}

// leave must be called with mu held.
func (h *Hub) leave(client *Client, symbol string) {
	if clients, ok := h.groups[symbol]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, symbol)
		}
	}
	delete(client.groups, symbol)
}

// ActiveSymbols returns every symbol with at least one subscriber.
func (h *Hub) ActiveSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	symbols := make([]string, 0, len(h.groups))
	for symbol := range h.groups {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Publish sends a report event for symbol to its subscribers.
func (h *Hub) Publish(symbol string, data any) error {
	symbol = strings.ToUpper(symbol)
	payload, err := json.Marshal(Event{Type: EventReport, Symbol: symbol, Data: data})
	if err != nil {
		return err
	}
	msg := &groupMessage{symbol: symbol, payload: payload}

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}
