package store

import (
	"context"
	"encoding/json"
	"fmt"
)

const rejoinKey = "current_game_session"

// RejoinPointer lets a client offer to resume an in-progress session after a
// restart. It lives outside the session's own lifecycle.
type RejoinPointer struct {
	SessionID string `json:"sessionId"`
	JoinCode  string `json:"joinCode"`
}

// RejoinManager persists the pointer for the active session. Remember is
// called as soon as a session view is entered; Forget only on a
// server-acknowledged end game. Navigation away and network errors leave the
// pointer intact.
type RejoinManager struct {
	kv KV
}

func NewRejoinManager(kv KV) *RejoinManager {
	return &RejoinManager{kv: kv}
}

// Remember durably stores the pointer for the given session.
func (m *RejoinManager) Remember(ctx context.Context, sessionID, joinCode string) error {
	raw, err := json.Marshal(&RejoinPointer{SessionID: sessionID, JoinCode: joinCode})
	if err != nil {
		return fmt.Errorf("failed to encode rejoin pointer: %w", err)
	}
	return m.kv.Set(ctx, rejoinKey, raw)
}

// Recall returns the last remembered pointer, or nil when none exists.
func (m *RejoinManager) Recall(ctx context.Context) (*RejoinPointer, error) {
	raw, err := m.kv.Get(ctx, rejoinKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var p RejoinPointer
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse rejoin pointer: %w", err)
	}
	return &p, nil
}

// Forget clears the pointer.
func (m *RejoinManager) Forget(ctx context.Context) error {
	return m.kv.Delete(ctx, rejoinKey)
}
