package model

// StartRoundRequest asks the server to open a round with a picked category.
type StartRoundRequest struct {
	Category string `json:"category"`
}

// SubmitAnswerRequest carries one answer attempt. ClientAttemptID makes
// retried submissions idempotent on the server side.
type SubmitAnswerRequest struct {
	Text            string `json:"text"`
	ClientAttemptID string `json:"clientAttemptId"`
}

// SubmitAnswerResponse reports the outcome of a submission. AnsweredCount
// and TotalPlayers are informational; the snapshot remains the source of
// round-completion truth.
type SubmitAnswerResponse struct {
	PointsEarned   int  `json:"pointsEarned"`
	RoundCompleted bool `json:"roundCompleted"`
	AnsweredCount  int  `json:"answeredCount"`
	TotalPlayers   int  `json:"totalPlayers"`
}

// JoinRequest resolves a join code to a session. Username is only needed by
// servers that mint the player identity at join time.
type JoinRequest struct {
	JoinCode string `json:"joinCode"`
	Username string `json:"username,omitempty"`
}

// CreateSessionRequest opens a new session with the given creator.
type CreateSessionRequest struct {
	Username string `json:"username"`
}

type JoinResponse struct {
	SessionID string  `json:"sessionId"`
	JoinCode  string  `json:"joinCode"`
	Token     string  `json:"token,omitempty"`
	Player    *Player `json:"player,omitempty"`
}

// ErrorResponse is the body the server sends with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
