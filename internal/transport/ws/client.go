package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"duetquiz/internal/model"
)

// Meta events delivered alongside typed stream frames.
const (
	EventOpen    = "open"
	EventClose   = "close"
	EventError   = "error"
	EventMessage = "message"
)

const (
	maxReconnectAttempts = 5
	defaultBaseDelay     = 2 * time.Second
	writeWait            = 10 * time.Second
)

// Handler receives a stream frame. For meta events the frame's Type is the
// meta event name.
type Handler func(model.Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	event string
	id    int
}

// Client is a reconnecting websocket connection to one server channel.
// Inbound frames fan out to generic "message" subscribers and to subscribers
// keyed by the frame's own type. The transport is advisory only: callers must
// not depend on it for correctness, polling is the safety net.
type Client struct {
	url       string
	header    http.Header
	baseDelay time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	writeMu   sync.Mutex
	listeners map[string]map[int]Handler
	nextID    int
	attempts  int
	closed    bool
	reconnect *time.Timer
}

// NewClient creates a client for a ws:// or wss:// URL. An http(s) base URL
// is converted the way the channel constructors do.
func NewClient(url string, header http.Header) *Client {
	return &Client{
		url:       url,
		header:    header,
		baseDelay: defaultBaseDelay,
		listeners: make(map[string]map[int]Handler),
	}
}

// WebSocketURL converts an API base URL to the stream URL for a channel
// path.
func WebSocketURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(base, "https") {
		base = "wss" + strings.TrimPrefix(base, "https")
	} else if strings.HasPrefix(base, "http") {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	return base + path
}

// Connect dials the channel and starts the read loop. A dial failure counts
// as a dropped connection and schedules a reconnect under the same rules as
// a mid-stream close.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.dial()
}

func (c *Client) dial() {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		log.Printf("[WS] dial %s failed: %v", c.url, err)
		c.emit(model.Event{Type: EventError})
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.attempts = 0
	c.mu.Unlock()

	log.Printf("[WS] connected: %s", c.url)
	c.emit(model.Event{Type: EventOpen})
	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			deliberate := c.closed
			c.mu.Unlock()

			c.emit(model.Event{Type: EventClose})
			if !deliberate && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Printf("[WS] connection lost: %v", err)
				c.scheduleReconnect()
			}
			return
		}

		var evt model.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Printf("[WS] bad frame: %v", err)
			continue
		}
		c.emit(model.Event{Type: EventMessage, Payload: data})
		if evt.Type != "" {
			c.emit(evt)
		}
	}
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.attempts >= maxReconnectAttempts {
		return
	}
	c.attempts++
	delay := c.baseDelay * time.Duration(c.attempts)
	log.Printf("[WS] reconnecting in %v (attempt %d/%d)", delay, c.attempts, maxReconnectAttempts)
	c.reconnect = time.AfterFunc(delay, c.dial)
}

// Send marshals v and writes it as a text frame. Returns an error when the
// channel is not connected; callers treat that as advisory.
func (c *Client) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	// gorilla allows one concurrent writer per connection.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// On registers a handler for a typed frame or meta event.
func (c *Client) On(event string, h Handler) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listeners[event] == nil {
		c.listeners[event] = make(map[int]Handler)
	}
	c.nextID++
	c.listeners[event][c.nextID] = h
	return Subscription{event: event, id: c.nextID}
}

// Off removes a previously registered handler.
func (c *Client) Off(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hs := c.listeners[sub.event]; hs != nil {
		delete(hs, sub.id)
	}
}

// IsConnected reports whether the channel currently has a live connection.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close shuts the channel down for good: sends the deliberate-closure code,
// clears all subscriptions and suppresses any scheduled reconnect.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.listeners = make(map[string]map[int]Handler)
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed"), deadline)
		conn.Close()
	}
}

func (c *Client) emit(evt model.Event) {
	c.mu.Lock()
	hs := c.listeners[string(evt.Type)]
	handlers := make([]Handler, 0, len(hs))
	for _, h := range hs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}
