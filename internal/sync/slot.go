// Package gamesync reconciles local view state with server-authoritative
// state over two channels: a timed poll and push-triggered early fetches.
// Pull is the only path that ever updates visible state; push frames are
// low-latency triggers to pull sooner.
package gamesync

import (
	"sync"

	"duetquiz/internal/model"
)

// Slot is the single canonical "latest snapshot" cell. Every fetch reserves
// a monotonically increasing sequence number before it is issued; a response
// is applied only if no later-reserved fetch has been applied already, so a
// slow stale response can never overwrite a fresher one.
type Slot struct {
	mu      sync.RWMutex
	nextSeq uint64
	applied uint64
	snap    *model.Snapshot
}

func NewSlot() *Slot {
	return &Slot{}
}

// Begin reserves a sequence number for a fetch about to be issued.
func (s *Slot) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Apply stores a completed fetch's snapshot unless a later fetch already
// won. Returns whether the snapshot was applied.
func (s *Slot) Apply(seq uint64, snap *model.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.snap = snap
	return true
}

// Latest returns the last applied snapshot, or nil before the first
// successful fetch. Readers never mutate it; all mutation is wholesale
// replacement by Apply.
func (s *Slot) Latest() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
