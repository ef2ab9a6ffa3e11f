package model

import "strings"

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// JoinCodeLength is the fixed width of a human-shareable join code.
const JoinCodeLength = 6

// Player is referenced by sessions, never owned by them.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// GameSession is the server-authoritative session header. Clients never
// mutate it directly; every field is replaced wholesale by the next snapshot.
type GameSession struct {
	ID          string        `json:"id"`
	JoinCode    string        `json:"joinCode"`
	Status      SessionStatus `json:"status"`
	Players     []Player      `json:"players"`
	CurrentTurn *Player       `json:"currentTurn,omitempty"`
	Creator     *Player       `json:"creator"`
}

// NormalizeJoinCode upper-cases and trims a join code.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether a normalized code has the required width.
func ValidJoinCode(code string) bool {
	return len(NormalizeJoinCode(code)) == JoinCodeLength
}

// IsCreator reports whether the given player created the session.
func (s *GameSession) IsCreator(playerID string) bool {
	return s.Creator != nil && s.Creator.ID == playerID
}

// IsTurn reports whether it is the given player's turn. Turn rotation is
// server-owned; this only reflects the pointer in the latest snapshot.
func (s *GameSession) IsTurn(playerID string) bool {
	return s.CurrentTurn != nil && s.CurrentTurn.ID == playerID
}

func (s *GameSession) PlayerCount() int {
	return len(s.Players)
}
