package devserver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duetquiz/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.EventType
}

func (n *recordingNotifier) NotifyGame(sessionID string, evtType model.EventType, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evtType)
}

func (n *recordingNotifier) all() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.EventType(nil), n.events...)
}

func newTwoPlayerGame(t *testing.T) (*Store, *recordingNotifier, string, model.Player, model.Player) {
	t.Helper()
	notifier := &recordingNotifier{}
	store := NewStore(notifier)

	snap, alice, err := store.CreateSession("alice")
	require.NoError(t, err)
	require.Len(t, snap.Session.JoinCode, model.JoinCodeLength)

	sessionID, bob, err := store.Join(snap.Session.JoinCode, "bob")
	require.NoError(t, err)
	require.Equal(t, snap.Session.ID, sessionID)

	return store, notifier, sessionID, alice, bob
}

func TestCreateSessionSeedsState(t *testing.T) {
	store := NewStore(nil)
	snap, alice, err := store.CreateSession("alice")
	require.NoError(t, err)

	assert.Equal(t, model.SessionActive, snap.Session.Status)
	assert.True(t, snap.Session.IsCreator(alice.ID))
	assert.True(t, snap.Session.IsTurn(alice.ID), "the creator picks first")
	require.NotNil(t, snap.CurrentRound)
	assert.Nil(t, snap.CurrentRound.Question, "first round awaits a pick")
}

func TestJoinIsIdempotentPerUsername(t *testing.T) {
	store, _, sessionID, _, bob := newTwoPlayerGame(t)

	snap, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	code := snap.Session.JoinCode

	_, again, err := store.Join(code, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, again.ID, "rejoining reuses the existing player")

	snap, err = store.Snapshot(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Session.PlayerCount())
}

func TestJoinUnknownCode(t *testing.T) {
	store := NewStore(nil)
	_, _, err := store.Join("ZZZZZZ", "bob")
	assert.ErrorIs(t, err, ErrUnknownJoinCode)
}

func TestStartRoundEnforcesTurn(t *testing.T) {
	store, _, sessionID, alice, bob := newTwoPlayerGame(t)

	_, err := store.StartRound(sessionID, bob.ID, "romantic")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	snap, err := store.StartRound(sessionID, alice.ID, "romantic")
	require.NoError(t, err)
	require.NotNil(t, snap.CurrentRound.Question)
	assert.Equal(t, "romantic", snap.CurrentRound.Category)
	assert.Equal(t, alice.ID, snap.CurrentRound.Picker.ID)
	assert.Len(t, snap.CurrentRound.Answers, 2)

	_, err = store.StartRound(sessionID, alice.ID, "mental")
	assert.ErrorIs(t, err, ErrRoundActive, "only one question per round")
}

func TestStartRoundExhaustedCategory(t *testing.T) {
	store, _, sessionID, alice, _ := newTwoPlayerGame(t)

	_, err := store.StartRound(sessionID, alice.ID, "no-such-category")
	assert.ErrorIs(t, err, ErrCategoryExhausted)
}

func TestSubmitAnswerAtMostOnce(t *testing.T) {
	store, _, sessionID, alice, _ := newTwoPlayerGame(t)
	_, err := store.StartRound(sessionID, alice.ID, "romantic")
	require.NoError(t, err)

	resp, err := store.SubmitAnswer(sessionID, alice.ID, "a picnic", "attempt-1")
	require.NoError(t, err)
	assert.Equal(t, 10, resp.PointsEarned)
	assert.False(t, resp.RoundCompleted)
	assert.Equal(t, 1, resp.AnsweredCount)

	// Same attempt id is a retry of the same write, not a new answer.
	again, err := store.SubmitAnswer(sessionID, alice.ID, "a picnic", "attempt-1")
	require.NoError(t, err)
	assert.Equal(t, resp, again)

	// A genuinely new write for the same round is rejected.
	_, err = store.SubmitAnswer(sessionID, alice.ID, "changed my mind", "attempt-2")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	snap, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentRound.AnsweredCount(), "duplicates never land in state")
	assert.Equal(t, 10, snap.Scores["alice"], "points awarded once")
}

func TestRoundCompletionIsMonotonic(t *testing.T) {
	store, notifier, sessionID, alice, bob := newTwoPlayerGame(t)
	_, err := store.StartRound(sessionID, alice.ID, "romantic")
	require.NoError(t, err)

	_, err = store.SubmitAnswer(sessionID, alice.ID, "a picnic", "a1")
	require.NoError(t, err)
	resp, err := store.SubmitAnswer(sessionID, bob.ID, "stargazing", "b1")
	require.NoError(t, err)
	assert.True(t, resp.RoundCompleted)

	// Completed rounds accept no further answers under any attempt id.
	_, err = store.SubmitAnswer(sessionID, bob.ID, "more", "b2")
	require.Error(t, err)

	events := notifier.all()
	assert.Equal(t, []model.EventType{
		model.EvtRoundStarted,
		model.EvtAnswerSubmitted,
		model.EvtAnswerSubmitted,
		model.EvtRoundCompleted,
	}, events)
}

func TestNextRoundRotatesTurn(t *testing.T) {
	store, _, sessionID, alice, bob := newTwoPlayerGame(t)
	_, err := store.StartRound(sessionID, alice.ID, "romantic")
	require.NoError(t, err)

	_, err = store.NextRound(sessionID, alice.ID)
	assert.ErrorIs(t, err, ErrRoundNotComplete, "cannot advance mid-round")

	_, err = store.SubmitAnswer(sessionID, alice.ID, "a picnic", "a1")
	require.NoError(t, err)
	_, err = store.SubmitAnswer(sessionID, bob.ID, "stargazing", "b1")
	require.NoError(t, err)

	_, err = store.NextRound(sessionID, bob.ID)
	assert.ErrorIs(t, err, ErrNotCreator)

	snap, err := store.NextRound(sessionID, alice.ID)
	require.NoError(t, err)
	assert.True(t, snap.Session.IsTurn(bob.ID), "turn rotates to the other player")
	assert.Nil(t, snap.CurrentRound.Question, "fresh round awaits the new picker")
	assert.Len(t, snap.Rounds, 2)
	require.Len(t, snap.CompletedRounds(), 1)
	assert.Equal(t, "romantic", snap.CompletedRounds()[0].Category)
}

func TestEndIsCreatorOnly(t *testing.T) {
	store, notifier, sessionID, alice, bob := newTwoPlayerGame(t)

	err := store.End(sessionID, bob.ID)
	assert.ErrorIs(t, err, ErrNotCreator)

	require.NoError(t, store.End(sessionID, alice.ID))

	snap, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	assert.True(t, snap.Ended())

	_, _, err = store.Join(snap.Session.JoinCode, "carol")
	assert.ErrorIs(t, err, ErrSessionEnded)

	events := notifier.all()
	assert.Equal(t, model.EvtGameEnded, events[len(events)-1])
}

func TestSnapshotIsSideEffectFree(t *testing.T) {
	store, _, sessionID, _, _ := newTwoPlayerGame(t)

	first, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	second, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Mutating a snapshot must not leak into the store.
	first.Session.Players[0].Username = "mallory"
	third, err := store.Snapshot(sessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", third.Session.Players[0].Username)
}

func TestCategoriesReportRemainingQuestions(t *testing.T) {
	store, _, sessionID, alice, _ := newTwoPlayerGame(t)

	before := countFor(store.Categories(sessionID), "romantic")
	_, err := store.StartRound(sessionID, alice.ID, "romantic")
	require.NoError(t, err)
	after := countFor(store.Categories(sessionID), "romantic")

	assert.Equal(t, before-1, after)
}

func countFor(cats []model.Category, id string) int {
	for _, c := range cats {
		if c.ID == id {
			return c.QuestionCount
		}
	}
	return -1
}
