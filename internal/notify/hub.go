package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/roach88/cafesync/internal/domain"
)

// Hub event types.
const (
	EventHello        = "hello"
	EventNotification = "notification"
	EventDismiss      = "dismiss"
)

var (
	// ErrHubClosed is returned by Render/Dismiss after Run has returned.
	ErrHubClosed = errors.New("notification hub closed")
	// ErrHubBusy is returned when the broadcast buffer is full.
	ErrHubBusy = errors.New("notification hub busy")
)

// Event is the websocket message sent to dashboard clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub is a Sink that broadcasts notifications to connected dashboard
// websocket clients. Run must be running for clients to register.
type Hub struct {
	clients    map[*hubClient]struct{}
	broadcast  chan []byte
	register   chan *hubClient
	unregister chan *hubClient
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a Hub. A nil logger uses slog.Default().
//
// Browsers may connect from the page the feed is served with, or from one
// of allowedOrigins ("http://host:port"). Clients that send no Origin
// header, such as command line tools, are always accepted.
func NewHub(logger *slog.Logger, allowedOrigins ...string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return &Hub{
		clients:    make(map[*hubClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(r, allowed) },
		},
		logger: logger,
	}
}

// Run services registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("dashboard client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("dashboard client disconnected", "clients", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Render(_ context.Context, n domain.Notification) error {
	return h.publish(EventNotification, n)
}

func (h *Hub) Dismiss(_ context.Context, id string) error {
	return h.publish(EventDismiss, map[string]string{"id": id})
}

func (h *Hub) publish(eventType string, payload any) error {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- data:
		return nil
	default:
		return ErrHubBusy
	}
}

func encodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return data, nil
}

func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}

// ServeHTTP upgrades the request to a websocket and streams hub events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	hello, err := encodeEvent(EventHello, map[string]string{"service": "cafesync"})
	if err == nil {
		c.send <- hello
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains client frames so control messages are processed and a
// closed connection is noticed.
func (c *hubClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *hubClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
