package gamesync

import (
	"context"
	"log"

	"duetquiz/internal/model"
	"duetquiz/internal/transport/ws"
)

// Bridge turns push frames into early pulls. Push payloads may be partial,
// reordered or racy against an in-flight fetch, so they are never applied as
// state: any state-changing event triggers an out-of-band fetch into the
// same slot the poller writes.
type Bridge struct {
	refresher *Refresher
	channel   *ws.Client
	subs      []ws.Subscription
	cancel    context.CancelFunc
}

// NewBridge creates a bridge between a session channel and the refresher.
func NewBridge(refresher *Refresher, channel *ws.Client) *Bridge {
	return &Bridge{refresher: refresher, channel: channel}
}

// Attach subscribes to every state-changing event type. Fetches triggered by
// events run off the caller's goroutine so a slow fetch never blocks the
// transport's dispatch.
func (b *Bridge) Attach(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	for _, t := range []model.EventType{
		model.EvtRoundStarted,
		model.EvtAnswerSubmitted,
		model.EvtRoundCompleted,
		model.EvtNextRound,
		model.EvtGameEnded,
	} {
		evtType := t
		sub := b.channel.On(string(evtType), func(model.Event) {
			log.Printf("[Sync] %s received, refreshing", evtType)
			go func() {
				_ = b.refresher.Refresh(ctx)
			}()
		})
		b.subs = append(b.subs, sub)
	}
}

// Detach removes the subscriptions and stops in-flight triggered fetches.
func (b *Bridge) Detach() {
	for _, sub := range b.subs {
		b.channel.Off(sub)
	}
	b.subs = nil
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}
