package devserver

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"duetquiz/internal/model"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionEnded      = errors.New("session has ended")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNotCreator        = errors.New("only the creator may do this")
	ErrRoundActive       = errors.New("round already has a question")
	ErrNoActiveRound     = errors.New("no active round")
	ErrAlreadyAnswered   = errors.New("already answered this round")
	ErrRoundCompleted    = errors.New("round is already completed")
	ErrRoundNotComplete  = errors.New("round is not answer-complete")
	ErrCategoryExhausted = errors.New("no questions left in this category")
	ErrUnknownJoinCode   = errors.New("unknown join code")
)

// Notifier receives the event frames the store emits on state changes. The
// websocket hub implements it; frames are invalidation signals for clients,
// never state.
type Notifier interface {
	NotifyGame(sessionID string, evtType model.EventType, payload interface{})
}

type sessionState struct {
	session model.GameSession
	rounds  []*model.Round
	scores  map[string]int
	// used tracks consumed questions per category
	used map[string]int
	// attempts maps clientAttemptId -> cached response for idempotent
	// retries of the same write
	attempts map[string]*model.SubmitAnswerResponse
}

// currentRound is the latest round. A completed round stays current until
// the creator advances, so clients keep showing its results.
func (s *sessionState) currentRound() *model.Round {
	if len(s.rounds) == 0 {
		return nil
	}
	return s.rounds[len(s.rounds)-1]
}

// Store is the authoritative in-memory game state. It exists so the client
// engine can be exercised end to end without the production backend.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	byCode   map[string]string
	bank     map[string][]model.Question
	notifier Notifier
	rng      *rand.Rand
}

func NewStore(notifier Notifier) *Store {
	return &Store{
		sessions: make(map[string]*sessionState),
		byCode:   make(map[string]string),
		bank:     defaultBank(),
		notifier: notifier,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (st *Store) newJoinCode() string {
	for {
		b := make([]byte, model.JoinCodeLength)
		for i := range b {
			b[i] = codeCharset[st.rng.Intn(len(codeCharset))]
		}
		code := string(b)
		if _, taken := st.byCode[code]; !taken {
			return code
		}
	}
}

// CreateSession opens a session with the given creator. The creator starts
// as the current turn and an empty first round awaits their pick.
func (st *Store) CreateSession(username string) (*model.Snapshot, model.Player, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	creator := model.Player{ID: uuid.New().String(), Username: username}
	id := uuid.New().String()
	code := st.newJoinCode()

	ss := &sessionState{
		session: model.GameSession{
			ID:          id,
			JoinCode:    code,
			Status:      model.SessionActive,
			Players:     []model.Player{creator},
			CurrentTurn: &creator,
			Creator:     &creator,
		},
		rounds:   []*model.Round{{ID: uuid.New().String()}},
		scores:   map[string]int{username: 0},
		used:     make(map[string]int),
		attempts: make(map[string]*model.SubmitAnswerResponse),
	}
	st.sessions[id] = ss
	st.byCode[code] = id

	return st.snapshotLocked(ss), creator, nil
}

// Join resolves a join code and adds the player to the session. Rejoining
// with a username already in the session reuses that player.
func (st *Store) Join(joinCode, username string) (string, model.Player, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	id, ok := st.byCode[model.NormalizeJoinCode(joinCode)]
	if !ok {
		return "", model.Player{}, ErrUnknownJoinCode
	}
	ss := st.sessions[id]
	if ss.session.Status == model.SessionEnded {
		return "", model.Player{}, ErrSessionEnded
	}

	for _, p := range ss.session.Players {
		if p.Username == username {
			return id, p, nil
		}
	}

	p := model.Player{ID: uuid.New().String(), Username: username}
	ss.session.Players = append(ss.session.Players, p)
	ss.scores[username] = 0
	if r := ss.currentRound(); r != nil && r.Question != nil {
		r.Answers = append(r.Answers, model.Answer{ID: uuid.New().String(), Player: p})
	}
	return id, p, nil
}

// Snapshot returns the full session state. Side-effect-free; repeated calls
// with no intervening mutation return identical snapshots.
func (st *Store) Snapshot(sessionID string) (*model.Snapshot, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	ss, ok := st.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return st.snapshotLocked(ss), nil
}

// StartRound attaches a category and question to the awaiting round.
func (st *Store) StartRound(sessionID, playerID, category string) (*model.Snapshot, error) {
	st.mu.Lock()
	ss, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if ss.session.Status == model.SessionEnded {
		st.mu.Unlock()
		return nil, ErrSessionEnded
	}
	round := ss.currentRound()
	if round == nil {
		st.mu.Unlock()
		return nil, ErrNoActiveRound
	}
	if round.Completed {
		st.mu.Unlock()
		return nil, ErrRoundCompleted
	}
	if round.Question != nil {
		st.mu.Unlock()
		return nil, ErrRoundActive
	}
	if !ss.session.IsTurn(playerID) {
		st.mu.Unlock()
		return nil, ErrNotYourTurn
	}

	questions := st.bank[category]
	if ss.used[category] >= len(questions) {
		st.mu.Unlock()
		return nil, ErrCategoryExhausted
	}
	q := questions[ss.used[category]]
	ss.used[category]++
	q.ID = uuid.New().String()
	q.Category = category

	picker := *ss.session.CurrentTurn
	round.Category = category
	round.Question = &q
	round.Picker = &picker
	round.Answers = round.Answers[:0]
	for _, p := range ss.session.Players {
		round.Answers = append(round.Answers, model.Answer{ID: uuid.New().String(), Player: p})
	}

	roundID := round.ID
	snap := st.snapshotLocked(ss)
	st.mu.Unlock()

	st.notify(sessionID, model.EvtRoundStarted, map[string]string{"roundId": roundID, "category": category})
	return snap, nil
}

// SubmitAnswer records one answer. Duplicate submissions are rejected unless
// they carry the same client attempt id, in which case the original result
// is returned unchanged.
func (st *Store) SubmitAnswer(sessionID, playerID, text, attemptID string) (*model.SubmitAnswerResponse, error) {
	st.mu.Lock()
	ss, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if ss.session.Status == model.SessionEnded {
		st.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if attemptID != "" {
		if cached, ok := ss.attempts[attemptID]; ok {
			st.mu.Unlock()
			return cached, nil
		}
	}
	round := ss.currentRound()
	if round == nil || round.Question == nil {
		st.mu.Unlock()
		return nil, ErrNoActiveRound
	}
	if round.Completed {
		st.mu.Unlock()
		return nil, ErrRoundCompleted
	}

	var slot *model.Answer
	for i := range round.Answers {
		if round.Answers[i].Player.ID == playerID {
			slot = &round.Answers[i]
			break
		}
	}
	if slot == nil {
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if slot.Submitted() {
		st.mu.Unlock()
		return nil, ErrAlreadyAnswered
	}

	slot.Text = text
	slot.SubmittedAt = time.Now().UTC()
	slot.PointsEarned = round.Question.Points
	ss.scores[slot.Player.Username] += slot.PointsEarned

	completed := round.AnswerComplete(len(ss.session.Players))
	if completed {
		round.Completed = true
	}
	resp := &model.SubmitAnswerResponse{
		PointsEarned:   slot.PointsEarned,
		RoundCompleted: completed,
		AnsweredCount:  round.AnsweredCount(),
		TotalPlayers:   len(ss.session.Players),
	}
	if attemptID != "" {
		ss.attempts[attemptID] = resp
	}
	roundID := round.ID
	st.mu.Unlock()

	st.notify(sessionID, model.EvtAnswerSubmitted, map[string]interface{}{
		"roundId": roundID, "playerId": playerID, "answeredCount": resp.AnsweredCount,
	})
	if completed {
		st.notify(sessionID, model.EvtRoundCompleted, map[string]string{"roundId": roundID})
	}
	return resp, nil
}

// NextRound rotates the turn and opens a fresh round. Creator-only, and the
// current round must be answer-complete; the client-side count is advisory.
func (st *Store) NextRound(sessionID, playerID string) (*model.Snapshot, error) {
	st.mu.Lock()
	ss, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if ss.session.Status == model.SessionEnded {
		st.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if !ss.session.IsCreator(playerID) {
		st.mu.Unlock()
		return nil, ErrNotCreator
	}
	if len(ss.rounds) == 0 || !ss.rounds[len(ss.rounds)-1].Completed {
		st.mu.Unlock()
		return nil, ErrRoundNotComplete
	}

	next := st.rotateLocked(ss)
	ss.session.CurrentTurn = &next
	ss.rounds = append(ss.rounds, &model.Round{ID: uuid.New().String()})

	snap := st.snapshotLocked(ss)
	st.mu.Unlock()

	st.notify(sessionID, model.EvtNextRound, map[string]string{"currentTurn": next.ID})
	return snap, nil
}

// End marks the session ended for all participants. Creator-only.
func (st *Store) End(sessionID, playerID string) error {
	st.mu.Lock()
	ss, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return ErrSessionNotFound
	}
	if !ss.session.IsCreator(playerID) {
		st.mu.Unlock()
		return ErrNotCreator
	}
	ss.session.Status = model.SessionEnded
	st.mu.Unlock()

	st.notify(sessionID, model.EvtGameEnded, map[string]string{"sessionId": sessionID})
	return nil
}

// Categories lists the catalog with remaining question counts.
func (st *Store) Categories(sessionID string) []model.Category {
	st.mu.Lock()
	defer st.mu.Unlock()

	used := map[string]int{}
	if ss, ok := st.sessions[sessionID]; ok {
		used = ss.used
	}
	var out []model.Category
	for id, qs := range st.bank {
		out = append(out, model.Category{
			ID:            id,
			Name:          categoryName(id),
			QuestionCount: len(qs) - used[id],
		})
	}
	return out
}

func (st *Store) rotateLocked(ss *sessionState) model.Player {
	players := ss.session.Players
	cur := 0
	for i, p := range players {
		if ss.session.CurrentTurn != nil && p.ID == ss.session.CurrentTurn.ID {
			cur = i
			break
		}
	}
	return players[(cur+1)%len(players)]
}

func (st *Store) snapshotLocked(ss *sessionState) *model.Snapshot {
	snap := &model.Snapshot{
		Session: ss.session,
		Scores:  make(map[string]int, len(ss.scores)),
	}
	snap.Session.Players = append([]model.Player(nil), ss.session.Players...)
	for k, v := range ss.scores {
		snap.Scores[k] = v
	}
	for i, r := range ss.rounds {
		cp := *r
		cp.Answers = append([]model.Answer(nil), r.Answers...)
		snap.Rounds = append(snap.Rounds, cp)
		if i == len(ss.rounds)-1 {
			current := cp
			snap.CurrentRound = &current
		}
	}
	return snap
}

func (st *Store) notify(sessionID string, evtType model.EventType, payload interface{}) {
	if st.notifier != nil {
		st.notifier.NotifyGame(sessionID, evtType, payload)
	}
}
