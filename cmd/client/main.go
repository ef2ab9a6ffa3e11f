package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"duetquiz/internal/api"
	"duetquiz/internal/config"
	"duetquiz/internal/game"
	"duetquiz/internal/model"
	"duetquiz/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	rejoin, err := buildRejoin(cfg)
	if err != nil {
		log.Fatalf("[Client] store: %v", err)
	}

	session, err := resolveSession(ctx, cfg, rejoin)
	if err != nil {
		log.Fatalf("[Client] %v", err)
	}
	if session.Player == nil {
		log.Fatalf("[Client] server did not return a player identity")
	}
	log.Printf("[Client] session %s (code %s) as %s", session.SessionID, session.JoinCode, session.Player.Username)

	client := api.NewClient(cfg.APIBaseURL, session.Token)

	ended := make(chan struct{})
	controller := game.NewController(client, game.Config{
		BaseURL:      cfg.APIBaseURL,
		Token:        session.Token,
		SessionID:    session.SessionID,
		JoinCode:     session.JoinCode,
		PlayerID:     session.Player.ID,
		PollInterval: cfg.PollInterval,
		OnSnapshot: func(snap *model.Snapshot) {
			logSnapshot(snap, session.Player.ID)
			if snap.Ended() {
				select {
				case <-ended:
				default:
					close(ended)
				}
			}
		},
	}, rejoin)

	if err := controller.Start(ctx); err != nil {
		log.Fatalf("[Client] start: %v", err)
	}
	defer controller.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("[Client] interrupted, leaving session view")
	case <-ended:
		// The controller clears the rejoin pointer on the ended snapshot.
		log.Println("[Client] game ended")
	}
}

func buildRejoin(cfg *config.Config) (*store.RejoinManager, error) {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRejoinManager(store.NewRedisKV(rdb, "duetquiz")), nil
	}
	kv, err := store.NewFileKV(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	return store.NewRejoinManager(kv), nil
}

// resolveSession finds the session to attach to: a stored rejoin pointer
// wins, then an explicit join code, otherwise a fresh session is created.
func resolveSession(ctx context.Context, cfg *config.Config, rejoin *store.RejoinManager) (*model.JoinResponse, error) {
	client := api.NewClient(cfg.APIBaseURL, cfg.Token)

	if ptr, err := rejoin.Recall(ctx); err != nil {
		log.Printf("[Client] rejoin recall failed: %v", err)
	} else if ptr != nil {
		log.Printf("[Client] rejoining session %s", ptr.SessionID)
		resp, err := client.Join(ctx, ptr.JoinCode, cfg.Username)
		if err == nil {
			return resp, nil
		}
		if api.IsTransport(err) {
			// The server may just be unreachable right now; the pointer
			// stays valid for the next attempt.
			return nil, fmt.Errorf("rejoin session %s: %w", ptr.SessionID, err)
		}
		// The server rejected the pointer itself, so it is stale.
		log.Printf("[Client] rejoin pointer is stale: %v", err)
		if ferr := rejoin.Forget(ctx); ferr != nil {
			log.Printf("[Client] failed to clear rejoin pointer: %v", ferr)
		}
	}

	if cfg.JoinCode != "" {
		return client.Join(ctx, cfg.JoinCode, cfg.Username)
	}
	return client.CreateSession(ctx, cfg.Username)
}

func logSnapshot(snap *model.Snapshot, playerID string) {
	view := game.Derive(snap, playerID, false)
	switch view.Phase {
	case game.PhaseAwaitingPick:
		log.Printf("[Client] awaiting pick (myTurn=%v)", view.MyTurn)
	case game.PhaseQuestionActive:
		log.Printf("[Client] question active: %q (%d/%d answered)", view.Question.Text, view.AnsweredCount, view.TotalPlayers)
	case game.PhaseRoundComplete:
		log.Printf("[Client] round complete, scores: %v", view.Scores)
	case game.PhaseEnded:
		log.Printf("[Client] game over, final scores: %v", view.Scores)
	}
}
