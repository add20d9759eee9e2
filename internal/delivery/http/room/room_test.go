package http_room_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	http_health "github.com/coderacer/core/internal/delivery/http/health"
	http_init "github.com/coderacer/core/internal/delivery/http/init"
	http_identity_middleware "github.com/coderacer/core/internal/delivery/http/middleware/identity"
	http_room "github.com/coderacer/core/internal/delivery/http/room"
	ws_room "github.com/coderacer/core/internal/delivery/ws/room"
	memory_room "github.com/coderacer/core/internal/infra/memory/room"
	memory_snippet "github.com/coderacer/core/internal/infra/memory/snippet"
	memory_user "github.com/coderacer/core/internal/infra/memory/user"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t       *testing.T
	handler http.Handler
	hub     *ws_room.Hub
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)

	store := memory_room.New()
	uc := usecase_room.New(
		store.Rooms(),
		store.Participants(),
		store,
		memory_snippet.New(model.Snippet{ID: 1, Language: "go", Code: "hello"}),
		memory_user.New(true),
	)
	hub := ws_room.NewHub(uc)

	pool := http_init.NewControllerPool()
	pool.Add(http_health.New())
	pool.Add(http_room.New(uc, hub, http_identity_middleware.New()))
	pool.Register()

	return &server{t: t, handler: pool.Handler(), hub: hub}
}

func (s *server) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(http_identity_middleware.HeaderUserID, user)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) createRoom(host string, maxPlayers int) string {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/rooms", host, map[string]int{"max_players": maxPlayers})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp http_room.CreateRoomResponseDTO
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.RoomCode
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
}

func TestCreateRoom(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/rooms", "alice", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp http_room.CreateRoomResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.RoomCode, 6)
	assert.Equal(t, "waiting", resp.Status)
	assert.Equal(t, "alice", resp.HostUserID)
	assert.Equal(t, 4, resp.MaxPlayers)
	assert.True(t, s.hub.HasRoom(resp.RoomCode))
}

func TestIdentityRequired(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/rooms", "", nil).Code)
}

func TestCreateRoom_BadBody(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", bytes.NewBufferString("{"))
	req.Header.Set(http_identity_middleware.HeaderUserID, "alice")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoom_UnknownSnippet(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/rooms", "alice", map[string]int64{"snippet_id": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExistsIsPublic(t *testing.T) {
	s := newServer(t)
	code := s.createRoom("alice", 2)

	var body struct {
		Exists bool `json:"exists"`
	}

	rec := s.do(http.MethodGet, "/rooms/"+code+"/exists", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Exists)

	rec = s.do(http.MethodGet, "/rooms/ZZZZZZ/exists", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Exists)
}

func TestJoinErrors(t *testing.T) {
	s := newServer(t)
	code := s.createRoom("alice", 2)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/rooms/ZZZZZZ/participants", "bob", nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/rooms/"+code+"/participants", "alice", nil).Code)
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/rooms/"+code+"/participants", "bob", nil).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/rooms/"+code+"/participants", "carol", nil).Code)
}

func TestRaceOverHTTP(t *testing.T) {
	s := newServer(t)
	code := s.createRoom("alice", 2)

	rec := s.do(http.MethodPost, "/rooms/"+code+"/participants", "bob", map[string]string{"username": "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var joined model.JoinResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &joined))
	assert.Equal(t, 2, joined.Count)
	assert.Equal(t, "Bob", joined.Participant.Username)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/rooms/"+code+"/start", "bob", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/rooms/"+code+"/start", "alice", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/rooms/"+code+"/start", "alice", nil).Code)

	rec = s.do(http.MethodPost, "/rooms/"+code+"/progress", "bob", http_room.ProgressRequestDTO{Progress: 50, WPM: 900, Accuracy: 97})
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Participant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 5, p.Progress)
	assert.Equal(t, usecase_room.MaxWPM, p.WPM)

	rec = s.do(http.MethodPost, "/rooms/"+code+"/finish", "bob", http_room.FinishRequestDTO{WPM: 80, Accuracy: 99})
	require.Equal(t, http.StatusOK, rec.Code)
	var first model.FinishResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, 1, first.Position)
	assert.False(t, first.RoomFinished)

	assert.Equal(t, http.StatusBadRequest,
		s.do(http.MethodPost, "/rooms/"+code+"/finish", "bob", http_room.FinishRequestDTO{}).Code)

	rec = s.do(http.MethodPost, "/rooms/"+code+"/finish", "alice", http_room.FinishRequestDTO{WPM: 60, Accuracy: 95})
	require.Equal(t, http.StatusOK, rec.Code)
	var second model.FinishResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, 2, second.Position)
	assert.True(t, second.RoomFinished)
	assert.Equal(t, model.StatusFinished, second.Room.Status)

	rec = s.do(http.MethodPost, "/rooms/"+code+"/rematch", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rematch model.RematchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rematch))
	assert.Equal(t, model.StatusWaiting, rematch.Room.Status)
	for _, participant := range rematch.Participants {
		assert.False(t, participant.IsFinished)
		assert.Zero(t, participant.Progress)
	}

	rec = s.do(http.MethodGet, "/rooms/"+code, "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state model.RoomState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "hello", state.Snippet.Code)
	assert.Len(t, state.Participants, 2)
}

func TestLeaveAndDelete(t *testing.T) {
	s := newServer(t)
	code := s.createRoom("alice", 3)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/rooms/"+code+"/participants", "bob", nil).Code)

	rec := s.do(http.MethodDelete, "/rooms/"+code+"/participants/me", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var left model.LeaveResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &left))
	assert.True(t, left.HostChanged)
	assert.Equal(t, "bob", left.HostUserID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/rooms/"+code+"/participants/me", "alice", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/rooms/"+code, "alice", nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/rooms/"+code, "bob", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/rooms/"+code, "bob", nil).Code)
	assert.False(t, s.hub.HasRoom(code))
}
