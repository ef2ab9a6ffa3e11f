package devserver

import (
	"encoding/json"
	"log"
	"sync"

	"duetquiz/internal/model"
)

// Hub manages the game and chat websocket channels. Each key (a session id
// for game channels, a room name for chat) fans out to every connection
// subscribed to it.
type Hub struct {
	gameConns map[string]map[*Connection]bool
	chatConns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
}

// Connection is one websocket subscriber on a channel.
type Connection struct {
	Key      string
	PlayerID string
	Chat     bool
	Send     chan []byte
	Hub      *Hub
}

type broadcastMessage struct {
	key  string
	chat bool
	data []byte
}

// NewHub creates the hub and starts its coordination loop.
func NewHub() *Hub {
	h := &Hub{
		gameConns:  make(map[string]map[*Connection]bool),
		chatConns:  make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) channelConns(chat bool) map[string]map[*Connection]bool {
	if chat {
		return h.chatConns
	}
	return h.gameConns
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			conns := h.channelConns(conn.Chat)
			if conns[conn.Key] == nil {
				conns[conn.Key] = make(map[*Connection]bool)
			}
			conns[conn.Key][conn] = true
			h.mu.Unlock()
			log.Printf("[Hub] %s connected (chat=%v key=%s)", conn.PlayerID, conn.Chat, conn.Key)

		case conn := <-h.unregister:
			h.mu.Lock()
			conns := h.channelConns(conn.Chat)
			if set, ok := conns[conn.Key]; ok && set[conn] {
				delete(set, conn)
				close(conn.Send)
				log.Printf("[Hub] %s disconnected (chat=%v key=%s)", conn.PlayerID, conn.Chat, conn.Key)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.channelConns(msg.chat)[msg.key] {
				select {
				case conn.Send <- msg.data:
				default:
					// Drop for slow consumers; clients refetch anyway
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// NotifyGame broadcasts an event frame to every game connection on the
// session. Implements the store's Notifier.
func (h *Hub) NotifyGame(sessionID string, evtType model.EventType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Hub] marshal payload: %v", err)
		return
	}
	frame, _ := json.Marshal(&model.Event{Type: evtType, Payload: data})
	h.broadcast <- &broadcastMessage{key: sessionID, data: frame}
}

// RelayChat broadcasts a raw chat frame to every chat connection in the room.
func (h *Hub) RelayChat(room string, frame []byte) {
	h.broadcast <- &broadcastMessage{key: room, chat: true, data: frame}
}
