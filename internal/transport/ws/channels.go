package ws

import (
	"errors"
	"net/http"
	"time"

	"duetquiz/internal/model"
)

// ErrNotConnected is returned by Send when the channel has no live
// connection. Losing the transport must never stall game progress.
var ErrNotConnected = errors.New("websocket not connected")

// GameChannel is the session-scoped stream. It shares the reconnect and
// dispatch core with the chat channel and differs only in the path it opens
// and the convenience senders it exposes.
type GameChannel struct {
	*Client
	SessionID string
}

// NewGameChannel opens a channel for one game session.
func NewGameChannel(baseURL, sessionID, token string) *GameChannel {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &GameChannel{
		Client:    NewClient(WebSocketURL(baseURL, "/ws/game/"+sessionID), header),
		SessionID: sessionID,
	}
}

// SendGameUpdate publishes a small control frame to the session channel.
func (g *GameChannel) SendGameUpdate(eventType model.EventType, payload interface{}) error {
	return g.Send(map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	})
}

// ChatChannel is the room-scoped chat stream. It carries no turn logic.
type ChatChannel struct {
	*Client
	Room string
}

// NewChatChannel opens a channel for one chat room.
func NewChatChannel(baseURL, room, token string) *ChatChannel {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &ChatChannel{
		Client: NewClient(WebSocketURL(baseURL, "/ws/chat/"+room), header),
		Room:   room,
	}
}

// SendMessage publishes a chat message.
func (c *ChatChannel) SendMessage(username, text string) error {
	return c.Send(map[string]interface{}{
		"type": model.EvtChatMessage,
		"payload": map[string]interface{}{
			"username":  username,
			"message":   text,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SendTyping publishes a transient typing indicator.
func (c *ChatChannel) SendTyping(username string) error {
	return c.Send(map[string]interface{}{
		"type":    model.EvtTyping,
		"payload": map[string]interface{}{"username": username},
	})
}
