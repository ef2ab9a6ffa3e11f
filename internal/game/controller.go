package game

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"duetquiz/internal/api"
	"duetquiz/internal/model"
	"duetquiz/internal/store"
	gamesync "duetquiz/internal/sync"
	"duetquiz/internal/transport/ws"
)

// Config describes one session the controller should drive.
type Config struct {
	BaseURL   string
	Token     string
	SessionID string
	JoinCode  string
	PlayerID  string
	// PollInterval overrides the default cadence; zero keeps the default.
	PollInterval time.Duration
	// OnSnapshot fires for every applied snapshot. Optional.
	OnSnapshot func(*model.Snapshot)
}

// Controller owns everything scoped to one open session view: the event
// channel, the poller, the invalidation bridge and the coordinator. Stopping
// it closes the transport and cancels the timers; the rejoin pointer is
// deliberately left alone.
type Controller struct {
	cfg         Config
	client      *api.Client
	channel     *ws.GameChannel
	refresher   *gamesync.Refresher
	poller      *gamesync.Poller
	bridge      *gamesync.Bridge
	coordinator *Coordinator
	rejoin      *store.RejoinManager

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewController wires the sync engine for one session. rejoin may be nil
// when the caller manages persistence itself.
func NewController(client *api.Client, cfg Config, rejoin *store.RejoinManager) *Controller {
	slot := gamesync.NewSlot()
	channel := ws.NewGameChannel(cfg.BaseURL, cfg.SessionID, cfg.Token)

	c := &Controller{
		cfg:    cfg,
		client: client,
		rejoin: rejoin,
	}
	c.refresher = gamesync.NewRefresher(client, cfg.SessionID, slot, func(snap *model.Snapshot) {
		if cfg.OnSnapshot != nil {
			cfg.OnSnapshot(snap)
		}
		if snap.Ended() {
			// The server says the game is over, which is the ack the
			// rejoin pointer waits for.
			c.forgetRejoin()
			go c.Stop()
		}
	})
	// A vanished session is fatal: keep the last view, stop the timers.
	c.refresher.SetOnError(func(err error) {
		if api.IsNotFound(err) {
			log.Printf("[Game] session %s is gone, stopping", cfg.SessionID)
			go c.Stop()
		}
	})
	c.channel = channel
	c.poller = gamesync.NewPoller(c.refresher, cfg.PollInterval)
	c.bridge = gamesync.NewBridge(c.refresher, channel.Client)
	c.coordinator = NewCoordinator(client, c.refresher, cfg.SessionID, cfg.PlayerID)
	return c
}

// Start records the rejoin pointer, opens the event channel and begins
// polling. The pointer is written before anything can fail so a crash
// mid-game still allows rejoin.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	if c.rejoin != nil {
		if err := c.rejoin.Remember(ctx, c.cfg.SessionID, c.cfg.JoinCode); err != nil {
			log.Printf("[Game] failed to store rejoin pointer: %v", err)
		}
	}

	c.bridge.Attach(ctx)
	c.channel.Connect()
	c.poller.Start(ctx)
	return nil
}

// Stop cancels the poll timer, detaches the bridge and closes the transport
// so no connections or timers leak when the session view is left.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	c.poller.Stop()
	c.bridge.Detach()
	c.channel.Close()
	cancel()
}

// View derives the current render state. ok is false before the first
// successful fetch.
func (c *Controller) View() (View, bool) {
	snap := c.refresher.Slot().Latest()
	if snap == nil {
		return View{}, false
	}
	submitted := false
	if snap.CurrentRound != nil {
		submitted = c.coordinator.Submitted(snap.CurrentRound.ID)
	}
	return Derive(snap, c.cfg.PlayerID, submitted), true
}

// Snapshot returns the latest applied snapshot, or nil before the first
// fetch succeeds.
func (c *Controller) Snapshot() *model.Snapshot {
	return c.refresher.Slot().Latest()
}

// Coordinator exposes the write side for the UI layer.
func (c *Controller) Coordinator() *Coordinator {
	return c.coordinator
}

// Refresh forces an immediate out-of-band fetch.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresher.Refresh(ctx)
}

// EndGame ends the session for everyone and, only once the server has
// acknowledged, clears the rejoin pointer. A network failure leaves the
// pointer in place so the user can retry or resume.
func (c *Controller) EndGame(ctx context.Context) error {
	if err := c.coordinator.End(ctx); err != nil {
		return err
	}
	if c.rejoin != nil {
		if err := c.rejoin.Forget(ctx); err != nil {
			return fmt.Errorf("clear rejoin pointer: %w", err)
		}
	}
	return nil
}

// forgetRejoin clears the pointer on an observed ended snapshot. Runs off
// the refresh context so stopping the controller cannot cancel it.
func (c *Controller) forgetRejoin() {
	if c.rejoin == nil {
		return
	}
	if err := c.rejoin.Forget(context.Background()); err != nil {
		log.Printf("[Game] failed to clear rejoin pointer: %v", err)
	}
}
