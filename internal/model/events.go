package model

import "encoding/json"

// EventType tags a frame on the session event stream.
type EventType string

// Session channel event types. Frames carrying these are invalidation
// signals only: they trigger a re-fetch, their payloads are never applied
// as state.
const (
	EvtRoundStarted    EventType = "round_started"
	EvtAnswerSubmitted EventType = "answer_submitted"
	EvtRoundCompleted  EventType = "round_completed"
	EvtNextRound       EventType = "next_round"
	EvtGameEnded       EventType = "game_ended"
)

// Chat channel event types.
const (
	EvtChatMessage EventType = "chat_message"
	EvtTyping      EventType = "typing"
)

// StateChanging reports whether an event implies session-visible state may
// have moved on the server.
func (t EventType) StateChanging() bool {
	switch t {
	case EvtRoundStarted, EvtAnswerSubmitted, EvtRoundCompleted, EvtNextRound, EvtGameEnded:
		return true
	}
	return false
}

// Event is the wire envelope for stream frames.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
