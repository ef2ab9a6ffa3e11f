package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"duetquiz/internal/model"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev server, allow all origins
	},
}

type contextKey string

const claimsKey contextKey = "playerClaims"

// Server is the development game server. It serves the session endpoints
// and the game/chat websocket channels against the in-memory store.
type Server struct {
	store *Store
	hub   *Hub
	auth  *Auth
}

func NewServer(auth *Auth) *Server {
	hub := NewHub()
	return &Server{
		store: NewStore(hub),
		hub:   hub,
		auth:  auth,
	}
}

// Store exposes the backing store, mainly for tests seeding state.
func (s *Server) Store() *Store { return s.store }

// Router builds the HTTP router for all endpoints.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.HandleFunc("/session/create", s.CreateSession).Methods("POST")
	r.HandleFunc("/session/join", s.Join).Methods("POST")
	r.HandleFunc("/categories", s.Categories).Methods("GET")

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requirePlayer)
	authed.HandleFunc("/session/{id}", s.GetSession).Methods("GET")
	authed.HandleFunc("/session/{id}/start-round", s.StartRound).Methods("POST")
	authed.HandleFunc("/session/{id}/submit-answer", s.SubmitAnswer).Methods("POST")
	authed.HandleFunc("/session/{id}/next-round", s.NextRound).Methods("POST")
	authed.HandleFunc("/session/{id}/end", s.EndSession).Methods("POST")

	r.HandleFunc("/ws/game/{id}", s.GameWS).Methods("GET")
	r.HandleFunc("/ws/chat/{room}", s.ChatWS).Methods("GET")

	return r
}

func (s *Server) requirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		claims, err := s.auth.ValidatePlayerToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerClaims(ctx context.Context) *PlayerClaims {
	claims, _ := ctx.Value(claimsKey).(*PlayerClaims)
	return claims
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// CreateSession handles POST /session/create
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	snap, player, err := s.store.CreateSession(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := s.auth.IssuePlayerToken(snap.Session.ID, player.ID, player.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	log.Printf("[Server] session %s created by %s (code %s)", snap.Session.ID, player.Username, snap.Session.JoinCode)
	writeJSON(w, http.StatusCreated, &model.JoinResponse{
		SessionID: snap.Session.ID,
		JoinCode:  snap.Session.JoinCode,
		Token:     token,
		Player:    &player,
	})
}

// Join handles POST /session/join
func (s *Server) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidJoinCode(model.NormalizeJoinCode(req.JoinCode)) {
		writeError(w, http.StatusBadRequest, "malformed join code")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	sessionID, player, err := s.store.Join(req.JoinCode, req.Username)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	token, err := s.auth.IssuePlayerToken(sessionID, player.ID, player.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, &model.JoinResponse{
		SessionID: sessionID,
		JoinCode:  model.NormalizeJoinCode(req.JoinCode),
		Token:     token,
		Player:    &player,
	})
}

// GetSession handles GET /session/{id}
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// StartRound handles POST /session/{id}/start-round
func (s *Server) StartRound(w http.ResponseWriter, r *http.Request) {
	claims := playerClaims(r.Context())

	var req model.StartRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	snap, err := s.store.StartRound(mux.Vars(r)["id"], claims.PlayerID, req.Category)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitAnswer handles POST /session/{id}/submit-answer
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	claims := playerClaims(r.Context())

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "answer text is required")
		return
	}

	resp, err := s.store.SubmitAnswer(mux.Vars(r)["id"], claims.PlayerID, req.Text, req.ClientAttemptID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// NextRound handles POST /session/{id}/next-round
func (s *Server) NextRound(w http.ResponseWriter, r *http.Request) {
	claims := playerClaims(r.Context())
	snap, err := s.store.NextRound(mux.Vars(r)["id"], claims.PlayerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// EndSession handles POST /session/{id}/end
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	claims := playerClaims(r.Context())
	if err := s.store.End(mux.Vars(r)["id"], claims.PlayerID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

// Categories handles GET /categories
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	cats := s.store.Categories(r.URL.Query().Get("sessionId"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

// GameWS handles GET /ws/game/{id}. The server only pushes invalidation
// frames on this channel; incoming messages are drained and ignored.
func (s *Server) GameWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	token := extractBearerToken(r)
	claims, err := s.auth.ValidatePlayerToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if claims.SessionID != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] websocket upgrade: %v", err)
		return
	}

	conn := &Connection{
		Key:      sessionID,
		PlayerID: claims.PlayerID,
		Send:     make(chan []byte, 256),
		Hub:      s.hub,
	}
	s.hub.Register(conn)

	go s.writePump(wsConn, conn)
	go s.readPump(wsConn, conn, nil)
}

// ChatWS handles GET /ws/chat/{room}. Frames from any member are relayed to
// the whole room.
func (s *Server) ChatWS(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]

	token := extractBearerToken(r)
	claims, err := s.auth.ValidatePlayerToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] websocket upgrade: %v", err)
		return
	}

	conn := &Connection{
		Key:      room,
		PlayerID: claims.PlayerID,
		Chat:     true,
		Send:     make(chan []byte, 256),
		Hub:      s.hub,
	}
	s.hub.Register(conn)

	go s.writePump(wsConn, conn)
	go s.readPump(wsConn, conn, func(frame []byte) {
		s.hub.RelayChat(room, frame)
	})
}

func (s *Server) readPump(wsConn *websocket.Conn, conn *Connection, onFrame func([]byte)) {
	defer func() {
		s.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(wsMaxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(wsPongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, frame, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[Server] websocket read: %v", err)
			}
			break
		}
		if onFrame != nil {
			onFrame(frame)
		}
	}
}

func (s *Server) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrUnknownJoinCode), errors.Is(err, ErrCategoryExhausted):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotYourTurn), errors.Is(err, ErrNotCreator):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyAnswered), errors.Is(err, ErrRoundCompleted),
		errors.Is(err, ErrRoundNotComplete), errors.Is(err, ErrRoundActive),
		errors.Is(err, ErrNoActiveRound), errors.Is(err, ErrSessionEnded):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
