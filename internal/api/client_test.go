package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duetquiz/internal/model"
)

func TestGetSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/session/s1", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(&model.Snapshot{
			Session: model.GameSession{ID: "s1", JoinCode: "ABC123", Status: model.SessionActive},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-1")
	snap, err := client.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", snap.Session.ID)
	assert.Equal(t, "ABC123", snap.Session.JoinCode)
}

func TestGetSessionRequiresID(t *testing.T) {
	client := NewClient("http://localhost:0", "")
	_, err := client.GetSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSessionID)
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		authz    bool
		notFound bool
	}{
		{name: "forbidden is authorization", status: http.StatusForbidden, authz: true},
		{name: "conflict is authorization", status: http.StatusConflict, authz: true},
		{name: "not found", status: http.StatusNotFound, notFound: true},
		{name: "server error is neither", status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(&model.ErrorResponse{Error: "nope"})
			}))
			defer server.Close()

			client := NewClient(server.URL, "")
			_, err := client.GetSession(context.Background(), "s1")
			require.Error(t, err)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.status, statusErr.Status)
			assert.Equal(t, "nope", statusErr.Reason)
			assert.Equal(t, tc.authz, IsAuthorization(err))
			assert.Equal(t, tc.notFound, IsNotFound(err))
			assert.False(t, IsTransport(err))
		})
	}
}

func TestTransportErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, "")
	_, err := client.GetSession(context.Background(), "s1")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsAuthorization(err))
}

func TestSubmitAnswerRejectsEmptyText(t *testing.T) {
	client := NewClient("http://localhost:0", "")
	_, err := client.SubmitAnswer(context.Background(), "s1", &model.SubmitAnswerRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestStartRoundRequiresCategory(t *testing.T) {
	client := NewClient("http://localhost:0", "")
	_, err := client.StartRound(context.Background(), "s1", "  ")
	assert.ErrorIs(t, err, ErrNoCategory)
}

func TestJoinRejectsMalformedCodeLocally(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.Join(context.Background(), "nope", "alice")
	assert.ErrorIs(t, err, ErrBadJoinCode)
	assert.False(t, called, "malformed codes must not reach the network")
}

func TestJoinNormalizesCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.JoinRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ABC123", req.JoinCode)
		assert.Equal(t, "alice", req.Username)

		json.NewEncoder(w).Encode(&model.JoinResponse{SessionID: "s1", JoinCode: req.JoinCode})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	resp, err := client.Join(context.Background(), " abc123 ", "alice")
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"categories": []model.Category{{ID: "romantic", Name: "Romantic", QuestionCount: 12}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	cats, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "romantic", cats[0].ID)
}
