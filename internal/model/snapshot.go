package model

// Snapshot is the full authoritative session state as returned by a single
// GET. It is the only input to the state machine; push frames merely trigger
// an earlier fetch.
type Snapshot struct {
	Session      GameSession    `json:"session"`
	CurrentRound *Round         `json:"currentRound,omitempty"`
	Rounds       []Round        `json:"rounds"`
	Scores       map[string]int `json:"scores"`
}

// Ended reports whether the session has been ended by its creator.
func (s *Snapshot) Ended() bool {
	return s.Session.Status == SessionEnded
}

// HasAnswered reports whether the given player's answer is visible in the
// current round of this snapshot.
func (s *Snapshot) HasAnswered(playerID string) bool {
	return s.CurrentRound != nil && s.CurrentRound.AnswerBy(playerID) != nil
}

// CompletedRounds returns the finished rounds, oldest first.
func (s *Snapshot) CompletedRounds() []Round {
	var out []Round
	for _, r := range s.Rounds {
		if r.Completed {
			out = append(out, r)
		}
	}
	return out
}
