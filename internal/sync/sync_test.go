package gamesync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duetquiz/internal/model"
	"duetquiz/internal/transport/ws"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	snaps []*model.Snapshot
	errs  []error
}

func (f *fakeFetcher) GetSession(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.snaps) {
		return f.snaps[i], nil
	}
	return &model.Snapshot{Session: model.GameSession{ID: sessionID}}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSlotDiscardsStaleFetch(t *testing.T) {
	slot := NewSlot()

	early := slot.Begin()
	late := slot.Begin()

	fresh := &model.Snapshot{Session: model.GameSession{ID: "fresh"}}
	stale := &model.Snapshot{Session: model.GameSession{ID: "stale"}}

	require.True(t, slot.Apply(late, fresh))
	assert.False(t, slot.Apply(early, stale), "a fetch that lost the race must be discarded")
	assert.Equal(t, "fresh", slot.Latest().Session.ID)
}

func TestSlotAppliesInOrder(t *testing.T) {
	slot := NewSlot()
	assert.Nil(t, slot.Latest())

	seq := slot.Begin()
	require.True(t, slot.Apply(seq, &model.Snapshot{Session: model.GameSession{ID: "first"}}))

	seq = slot.Begin()
	require.True(t, slot.Apply(seq, &model.Snapshot{Session: model.GameSession{ID: "second"}}))
	assert.Equal(t, "second", slot.Latest().Session.ID)
}

func TestRefresherKeepsLastKnownGood(t *testing.T) {
	good := &model.Snapshot{Session: model.GameSession{ID: "s1", JoinCode: "ABC123"}}
	fetcher := &fakeFetcher{
		snaps: []*model.Snapshot{good},
		errs:  []error{nil, errors.New("network down")},
	}

	applied := 0
	refresher := NewRefresher(fetcher, "s1", NewSlot(), func(*model.Snapshot) { applied++ })

	require.NoError(t, refresher.Refresh(context.Background()))
	assert.Equal(t, 1, applied)

	err := refresher.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, applied, "failed fetch must not fire the callback")
	assert.Equal(t, "ABC123", refresher.Slot().Latest().Session.JoinCode, "failed fetch must keep last known good")
}

func TestPollerFetchesImmediatelyThenOnCadence(t *testing.T) {
	fetcher := &fakeFetcher{}
	refresher := NewRefresher(fetcher, "s1", NewSlot(), nil)
	poller := NewPoller(refresher, 20*time.Millisecond)

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool { return fetcher.callCount() >= 1 }, time.Second, 5*time.Millisecond,
		"first fetch should not wait for the first tick")
	require.Eventually(t, func() bool { return fetcher.callCount() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPollerStopHaltsFetching(t *testing.T) {
	fetcher := &fakeFetcher{}
	refresher := NewRefresher(fetcher, "s1", NewSlot(), nil)
	poller := NewPoller(refresher, 10*time.Millisecond)

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	poller.Stop()

	at := fetcher.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, at, fetcher.callCount(), "no fetches after Stop")
}

func TestPollerDefaultInterval(t *testing.T) {
	poller := NewPoller(NewRefresher(&fakeFetcher{}, "s1", NewSlot(), nil), 0)
	assert.Equal(t, DefaultPollInterval, poller.interval)
}

var bridgeUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func bridgeTestSetup(t *testing.T) (*fakeFetcher, *Bridge, *websocket.Conn, func()) {
	t.Helper()

	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := bridgeUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))

	fetcher := &fakeFetcher{}
	refresher := NewRefresher(fetcher, "s1", NewSlot(), nil)
	channel := ws.NewClient(ws.WebSocketURL(server.URL, "/ws/game/s1"), nil)

	bridge := NewBridge(refresher, channel)
	bridge.Attach(context.Background())

	opened := make(chan struct{})
	channel.On(ws.EventOpen, func(model.Event) { close(opened) })
	channel.Connect()
	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for websocket open")
	}

	serverConn := <-conns
	cleanup := func() {
		bridge.Detach()
		channel.Close()
		server.Close()
	}
	return fetcher, bridge, serverConn, cleanup
}

func sendFrame(t *testing.T, conn *websocket.Conn, evtType model.EventType) {
	t.Helper()
	frame, err := json.Marshal(&model.Event{Type: evtType, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func TestBridgeRefetchesOnStateChangingEvents(t *testing.T) {
	fetcher, _, serverConn, cleanup := bridgeTestSetup(t)
	defer cleanup()

	sendFrame(t, serverConn, model.EvtAnswerSubmitted)
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)

	sendFrame(t, serverConn, model.EvtRoundCompleted)
	require.Eventually(t, func() bool { return fetcher.callCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBridgeIgnoresNonStateEvents(t *testing.T) {
	fetcher, _, serverConn, cleanup := bridgeTestSetup(t)
	defer cleanup()

	sendFrame(t, serverConn, model.EvtChatMessage)
	sendFrame(t, serverConn, model.EvtTyping)

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fetcher.callCount(), "chat traffic must not trigger refetches")
}

func TestBridgeDetachStopsTriggering(t *testing.T) {
	fetcher, bridge, serverConn, cleanup := bridgeTestSetup(t)
	defer cleanup()

	bridge.Detach()
	sendFrame(t, serverConn, model.EvtNextRound)

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, fetcher.callCount(), "detached bridge must not refetch")
}
