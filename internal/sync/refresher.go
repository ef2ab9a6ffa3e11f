package gamesync

import (
	"context"
	"log"

	"duetquiz/internal/model"
)

// SessionFetcher is the part of the API client the sync layer needs.
type SessionFetcher interface {
	GetSession(ctx context.Context, sessionID string) (*model.Snapshot, error)
}

// Refresher is the single fetch path shared by the poller and the
// invalidation bridge. Whatever triggered the fetch, the result lands in the
// same slot under the same staleness guard.
type Refresher struct {
	fetcher    SessionFetcher
	sessionID  string
	slot       *Slot
	onSnapshot func(*model.Snapshot)
	onError    func(error)
}

// NewRefresher creates a refresher for one session. onSnapshot fires for
// every applied snapshot and may be nil.
func NewRefresher(fetcher SessionFetcher, sessionID string, slot *Slot, onSnapshot func(*model.Snapshot)) *Refresher {
	return &Refresher{
		fetcher:    fetcher,
		sessionID:  sessionID,
		slot:       slot,
		onSnapshot: onSnapshot,
	}
}

// Refresh fetches the full session state and applies it. A failed fetch is
// logged and leaves the last-known-good snapshot in place; a stale response
// (one that lost the race to a later fetch) is discarded silently.
func (r *Refresher) Refresh(ctx context.Context) error {
	seq := r.slot.Begin()
	snap, err := r.fetcher.GetSession(ctx, r.sessionID)
	if err != nil {
		log.Printf("[Sync] fetch session %s failed: %v", r.sessionID, err)
		if r.onError != nil {
			r.onError(err)
		}
		return err
	}
	if !r.slot.Apply(seq, snap) {
		return nil
	}
	if r.onSnapshot != nil {
		r.onSnapshot(snap)
	}
	return nil
}

// SetOnError installs a hook fired on every failed fetch, so a caller can
// classify errors and decide whether to keep polling.
func (r *Refresher) SetOnError(f func(error)) {
	r.onError = f
}

// Slot exposes the canonical snapshot cell for readers.
func (r *Refresher) Slot() *Slot {
	return r.slot
}
