package game

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"duetquiz/internal/api"
	"duetquiz/internal/model"
	gamesync "duetquiz/internal/sync"
)

// Coordinator performs the user-intended writes: pick a category, submit an
// answer, advance the round, end the game. Every write is followed by an
// unconditional refresh so the view converges to server truth regardless of
// the write's outcome.
type Coordinator struct {
	client    *api.Client
	refresher *gamesync.Refresher
	sessionID string
	playerID  string

	mu        sync.Mutex
	submitted map[string]bool // roundID -> answer write confirmed
}

func NewCoordinator(client *api.Client, refresher *gamesync.Refresher, sessionID, playerID string) *Coordinator {
	return &Coordinator{
		client:    client,
		refresher: refresher,
		sessionID: sessionID,
		playerID:  playerID,
		submitted: make(map[string]bool),
	}
}

// Submit validates and writes one answer for the given round. The optimistic
// flag is set only after the server confirms the write; it gates the input
// form and nothing else, round completion is read from snapshots.
func (c *Coordinator) Submit(ctx context.Context, roundID, text string) (*model.SubmitAnswerResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, api.ErrEmptyAnswer
	}

	defer c.refreshAsync(ctx)

	resp, err := c.client.SubmitAnswer(ctx, c.sessionID, &model.SubmitAnswerRequest{
		Text:            text,
		ClientAttemptID: uuid.New().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}

	c.mu.Lock()
	c.submitted[roundID] = true
	c.mu.Unlock()

	log.Printf("[Game] answer submitted (%d/%d answered)", resp.AnsweredCount, resp.TotalPlayers)
	return resp, nil
}

// Submitted reports the optimistic flag for a round.
func (c *Coordinator) Submitted(roundID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted[roundID]
}

// PickCategory starts a round with the chosen category. The server rejects
// out-of-turn picks (403) and exhausted categories (404).
func (c *Coordinator) PickCategory(ctx context.Context, category string) error {
	defer c.refreshAsync(ctx)
	if _, err := c.client.StartRound(ctx, c.sessionID, category); err != nil {
		return fmt.Errorf("start round: %w", err)
	}
	return nil
}

// Advance opens the next round. Creator-only; the answered-count check the
// view shows is advisory, the server re-validates completeness.
func (c *Coordinator) Advance(ctx context.Context) error {
	defer c.refreshAsync(ctx)
	if _, err := c.client.NextRound(ctx, c.sessionID); err != nil {
		return fmt.Errorf("next round: %w", err)
	}
	return nil
}

// End marks the session ended for all participants. Creator-only. Callers
// clear the rejoin pointer only after this returns nil.
func (c *Coordinator) End(ctx context.Context) error {
	defer c.refreshAsync(ctx)
	if err := c.client.EndSession(ctx, c.sessionID); err != nil {
		return fmt.Errorf("end game: %w", err)
	}
	return nil
}

// refreshAsync triggers the convergence fetch without blocking the caller.
func (c *Coordinator) refreshAsync(ctx context.Context) {
	go func() {
		_ = c.refresher.Refresh(ctx)
	}()
}
