package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"duetquiz/internal/model"
)

// Client wraps the session API. It performs no retries of its own: the
// poller retries fetches on its next tick and answer writes are deliberately
// single-shot.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a session API client. token is the caller's bearer
// token; an empty token is allowed for servers that do not require one.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var er model.ErrorResponse
		_ = json.Unmarshal(respBody, &er)
		log.Printf("[API] %s %s -> %d: %s", method, path, resp.StatusCode, er.Error)
		return &StatusError{Status: resp.StatusCode, Reason: er.Error}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// GetSession fetches the full authoritative snapshot. Idempotent and
// side-effect-free on the server.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	var snap model.Snapshot
	if err := c.doRequest(ctx, http.MethodGet, "/session/"+sessionID, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// StartRound picks a category for the current round. The server validates
// that it is the caller's turn (403) and that the category still has
// questions (404).
func (c *Client) StartRound(ctx context.Context, sessionID, category string) (*model.Snapshot, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	if strings.TrimSpace(category) == "" {
		return nil, ErrNoCategory
	}
	var snap model.Snapshot
	err := c.doRequest(ctx, http.MethodPost, "/session/"+sessionID+"/start-round",
		&model.StartRoundRequest{Category: category}, &snap)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SubmitAnswer performs exactly one answer write. Empty text must be
// rejected by the caller before reaching here; it is re-checked as a guard.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, req *model.SubmitAnswerRequest) (*model.SubmitAnswerResponse, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyAnswer
	}
	var out model.SubmitAnswerResponse
	if err := c.doRequest(ctx, http.MethodPost, "/session/"+sessionID+"/submit-answer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NextRound advances to a fresh round. Creator-only; requires the current
// round to be answer-complete, both re-validated server-side.
func (c *Client) NextRound(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	var snap model.Snapshot
	if err := c.doRequest(ctx, http.MethodPost, "/session/"+sessionID+"/next-round", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// EndSession marks the session ended for all participants. Creator-only.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSessionID
	}
	return c.doRequest(ctx, http.MethodPost, "/session/"+sessionID+"/end", nil, nil)
}

// Join resolves a join code to a session id. Malformed codes are rejected
// locally before any network call.
func (c *Client) Join(ctx context.Context, joinCode, username string) (*model.JoinResponse, error) {
	code := model.NormalizeJoinCode(joinCode)
	if !model.ValidJoinCode(code) {
		return nil, ErrBadJoinCode
	}
	var out model.JoinResponse
	req := &model.JoinRequest{JoinCode: code, Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "/session/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession opens a new session with the caller as creator.
func (c *Client) CreateSession(ctx context.Context, username string) (*model.JoinResponse, error) {
	var out model.JoinResponse
	req := &model.CreateSessionRequest{Username: username}
	if err := c.doRequest(ctx, http.MethodPost, "/session/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories fetches the category catalog with remaining question counts.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out struct {
		Categories []model.Category `json:"categories"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}
