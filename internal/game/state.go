package game

import "duetquiz/internal/model"

// Phase is the derived round phase. It is recomputed from each snapshot,
// never stored: the UI is a pure function of one View value.
type Phase string

const (
	PhaseAwaitingPick   Phase = "awaiting_pick"
	PhaseQuestionActive Phase = "question_active"
	PhaseRoundComplete  Phase = "round_complete"
	PhaseEnded          Phase = "ended"
)

// View is everything a renderer needs for one frame, derived from the
// freshest snapshot and the local optimistic submit flag.
type View struct {
	Phase       Phase
	MyTurn      bool
	IsCreator   bool
	CanPick     bool
	CanSubmit   bool
	CanAdvance  bool
	HasAnswered bool
	// Submitting is true when the write succeeded but the snapshot does not
	// show the answer yet (the fetch raced the write). The input form must
	// not reappear in this window.
	Submitting    bool
	AnsweredCount int
	TotalPlayers  int
	JoinCode      string
	Question      *model.Question
	Picker        *model.Player
	CurrentTurn   *model.Player
	Scores        map[string]int
}

// Derive computes the view for a player. submitted is the coordinator's
// optimistic flag for the snapshot's current round; the snapshot wins as
// soon as it actually contains the answer.
func Derive(snap *model.Snapshot, playerID string, submitted bool) View {
	v := View{
		JoinCode:     snap.Session.JoinCode,
		Scores:       snap.Scores,
		CurrentTurn:  snap.Session.CurrentTurn,
		TotalPlayers: snap.Session.PlayerCount(),
		MyTurn:       snap.Session.IsTurn(playerID),
		IsCreator:    snap.Session.IsCreator(playerID),
	}

	if snap.Ended() {
		v.Phase = PhaseEnded
		return v
	}

	round := snap.CurrentRound
	if round == nil || round.Question == nil {
		v.Phase = PhaseAwaitingPick
		v.CanPick = v.MyTurn
		return v
	}

	v.Question = round.Question
	v.Picker = round.Picker
	v.AnsweredCount = round.AnsweredCount()

	if round.Completed || round.AnswerComplete(v.TotalPlayers) {
		v.Phase = PhaseRoundComplete
		v.HasAnswered = true
		v.CanAdvance = v.IsCreator
		return v
	}

	v.Phase = PhaseQuestionActive
	v.HasAnswered = snap.HasAnswered(playerID)
	v.Submitting = submitted && !v.HasAnswered
	v.CanSubmit = !v.HasAnswered && !submitted
	return v
}
