package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
	"github.com/wricardo/blockpush/transport/websocket"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Tr0ub4dor&3-horse-staple"

// corridor is solved by walking right twice
var corridor = &level.Level{ID: 7, Name: "corridor", Objects: [][]int{
	{1, 1, 1, 1, 1},
	{1, 2, 0, 4, 1},
	{1, 1, 1, 1, 1},
}}

type testEnv struct {
	server *httptest.Server
	store  *results.MemoryStore
	hub    *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	levels, err := level.NewManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, levels.SaveLevel(corridor))

	hub := websocket.NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	store := results.NewMemoryStore()
	sessions := session.NewManager(session.Options{
		TickInterval: time.Hour,
		Sink:         service.NewStoreSink(store),
		Notifier:     hub,
	})
	t.Cleanup(sessions.CloseAll)

	gameService := service.NewGameService(sessions, levels, store)
	hub.SetInputHandler(func(ctx context.Context, sessionID, direction string) error {
		_, err := gameService.Move(ctx, sessionID, direction)
		return err
	})

	users := identity.NewService(
		identity.NewMemoryRepo(),
		identity.NewJwtService("test-secret", "blockpush-test"),
		identity.NewMemoryRevoker(),
		store,
		identity.Config{HashCost: bcrypt.MinCost},
	)

	srv := httptest.NewServer(NewServer(gameService, users, hub))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: store, hub: hub}
}

// do sends a JSON request and decodes the JSON response into out
func (e *testEnv) do(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// login registers username and returns a fresh token
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()

	status := e.do(t, "POST", "/api/auth/register", "", credentials{username, strongPassword}, nil)
	require.Equal(t, http.StatusCreated, status)

	var out map[string]string
	status = e.do(t, "POST", "/api/auth/login", "", credentials{username, strongPassword}, &out)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out["token"])
	return out["token"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var out map[string]string
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/health", "", nil, &out))
	assert.Equal(t, "healthy", out["status"])
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice1")

	var errOut map[string]string
	assert.Equal(t, http.StatusConflict,
		env.do(t, "POST", "/api/auth/register", "", credentials{"alice1", strongPassword}, &errOut))
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, "POST", "/api/auth/register", "", credentials{"bob22", "password"}, &errOut))
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, "POST", "/api/auth/login", "", credentials{"alice1", "nope"}, &errOut))

	var profile identity.Profile
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/users/profile", token, nil, &profile))
	assert.Equal(t, "alice1", profile.Username)
	assert.Equal(t, "alice1", profile.Nickname)
	assert.Empty(t, profile.Results)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/users/profile", "", nil, &errOut))
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/users/profile", "garbage", nil, &errOut))

	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/users/profile", token, nil, &errOut))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice1")
	env.login(t, "bobby2")

	var user identity.User
	status := env.do(t, "PUT", "/api/users/profile", alice,
		identity.ProfileUpdate{Username: "alice9", Nickname: "Queen Alice"}, &user)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice9", user.Username)
	assert.Equal(t, "Queen Alice", user.Nickname)

	var errOut map[string]string
	status = env.do(t, "PUT", "/api/users/profile", alice,
		identity.ProfileUpdate{Username: "bobby2", Nickname: "Queen Alice"}, &errOut)
	assert.Equal(t, http.StatusConflict, status)

	status = env.do(t, "PUT", "/api/users/profile", alice,
		identity.ProfileUpdate{Username: "alice9", Nickname: "Al"}, &errOut)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFields(t *testing.T) {
	env := newTestEnv(t)

	var field struct {
		Level   int     `json:"level"`
		Objects [][]int `json:"objects"`
	}
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/fields?level=7", "", nil, &field))
	assert.Equal(t, 7, field.Level)
	assert.Equal(t, corridor.Objects, field.Objects)

	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/fields?difficulty=easy", "", nil, &field))
	assert.Equal(t, level.EasyLevelID, field.Level)

	var errOut map[string]string
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/fields?level=99", "", nil, &errOut))
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/fields", "", nil, &errOut))
}

func TestLevels(t *testing.T) {
	env := newTestEnv(t)

	var infos []level.Info
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/levels", "", nil, &infos))
	assert.Len(t, infos, 3)

	custom := level.Level{ID: 12, Name: "tiny", Objects: [][]int{{2, 4}}}
	assert.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/levels", "", custom, nil))

	var got level.Level
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/levels/12", "", nil, &got))
	assert.Equal(t, "tiny", got.Name)

	var errOut map[string]string
	bad := level.Level{ID: 13, Objects: [][]int{{9}}}
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/levels", "", bad, &errOut))
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/levels/abc", "", nil, &errOut))
}

func TestResultsAndRankings(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice1")
	bob := env.login(t, "bobby2")

	var errOut map[string]string
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, "POST", "/api/results", "", map[string]int{"level": 1, "time": 10}, &errOut))
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, "POST", "/api/results", alice, map[string]int{"level": 0, "time": 10}, &errOut))

	for _, post := range []struct {
		token string
		time  int
	}{{alice, 30}, {bob, 20}, {alice, 20}, {bob, 45}} {
		var r results.Result
		require.Equal(t, http.StatusCreated,
			env.do(t, "POST", "/api/results", post.token, map[string]int{"level": 1, "time": post.time}, &r))
		assert.NotEmpty(t, r.ID)
	}

	var list []results.Result
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/results?level=1", "", nil, &list))
	require.Len(t, list, 4)
	assert.Equal(t, 20, list[0].Time)
	assert.Equal(t, "bobby2", list[0].Username)

	var ranked []results.Entry
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/rankings?level=1", "", nil, &ranked))
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{1, 1, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
	assert.Equal(t, 30, ranked[2].Time)

	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/rankings?level=1&limit=0", "", nil, &ranked))
	assert.Len(t, ranked, 4)

	var profile identity.Profile
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/users/profile", alice, nil, &profile))
	assert.Len(t, profile.Results, 2)
	assert.Equal(t, 1, profile.TotalPlayMinutes)
}

func TestSessionPlayRecordsResult(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice1")

	var info service.SessionInfo
	require.Equal(t, http.StatusCreated,
		env.do(t, "POST", "/api/sessions", token, map[string]int{"level": 7}, &info))
	assert.Equal(t, 7, info.Level)
	assert.Equal(t, "alice1", info.Player.Username)

	var move service.MoveResult
	require.Equal(t, http.StatusOK,
		env.do(t, "POST", "/api/sessions/"+info.ID+"/move", token, map[string]string{"direction": "up"}, &move))
	assert.False(t, move.Success)
	assert.Equal(t, engine.Rejected, move.Move.Kind)

	var bulk service.BulkMoveResult
	require.Equal(t, http.StatusOK,
		env.do(t, "POST", "/api/sessions/"+info.ID+"/bulk-move", token, map[string][]string{"moves": {"right", "right"}}, &bulk))
	assert.True(t, bulk.Cleared)
	assert.Equal(t, 2, bulk.MovesExecuted)

	var list []results.Result
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/results?level=7", "", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice1", list[0].Username)

	var history service.HistoryResponse
	require.Equal(t, http.StatusOK,
		env.do(t, "GET", "/api/sessions/"+info.ID+"/history?order=asc", token, nil, &history))
	assert.Equal(t, 2, history.TotalMoves)
}

func TestSessionOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.login(t, "alice1")
	bob := env.login(t, "bobby2")

	var info service.SessionInfo
	require.Equal(t, http.StatusCreated,
		env.do(t, "POST", "/api/sessions", alice, map[string]string{"difficulty": "easy"}, &info))

	var errOut map[string]string
	assert.Equal(t, http.StatusForbidden,
		env.do(t, "POST", "/api/sessions/"+info.ID+"/move", bob, map[string]string{"direction": "left"}, &errOut))
	assert.Equal(t, http.StatusForbidden, env.do(t, "DELETE", "/api/sessions/"+info.ID, bob, nil, &errOut))
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/sessions/"+info.ID+"/state", alice, nil, nil))

	// no token means not the owner
	assert.Equal(t, http.StatusForbidden, env.do(t, "GET", "/api/sessions/"+info.ID, "", nil, &errOut))
	assert.Equal(t, http.StatusForbidden,
		env.do(t, "POST", "/api/sessions/"+info.ID+"/move", "", map[string]string{"direction": "right"}, &errOut))
	assert.Equal(t, http.StatusForbidden,
		env.do(t, "POST", "/api/sessions/"+info.ID+"/bulk-move", "", map[string][]string{"moves": {"right"}}, &errOut))
	assert.Equal(t, http.StatusForbidden, env.do(t, "POST", "/api/sessions/"+info.ID+"/reset", "", nil, &errOut))
	assert.Equal(t, http.StatusForbidden, env.do(t, "DELETE", "/api/sessions/"+info.ID, "", nil, &errOut))

	var listing struct {
		Total int `json:"total"`
	}
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/sessions", "", nil, &listing))
	assert.Equal(t, 0, listing.Total)

	// the session is untouched and still alice's
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/sessions/"+info.ID, alice, nil, &info))
	assert.Equal(t, 0, info.GameState.Moves)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	var first, second service.SessionInfo
	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/sessions", "", map[string]string{"difficulty": "easy"}, &first))
	require.Equal(t, http.StatusCreated, env.do(t, "POST", "/api/sessions", "", nil, &second))
	assert.Equal(t, level.EasyLevelID, first.Level)
	assert.Equal(t, level.NormalLevelID, second.Level)

	var listing struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/sessions?sort=created&order=asc&limit=1", "", nil, &listing))
	assert.Equal(t, 1, listing.Count)
	assert.Equal(t, 2, listing.Total)
	assert.Equal(t, first.ID, listing.Sessions[0].ID)

	var errOut map[string]string
	assert.Equal(t, http.StatusBadRequest,
		env.do(t, "POST", "/api/sessions/"+first.ID+"/move", "", map[string]string{"direction": "sideways"}, &errOut))

	var reset map[string]json.RawMessage
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/api/sessions/"+first.ID+"/reset", "", nil, &reset))
	assert.Contains(t, reset, "state")

	assert.Equal(t, http.StatusOK, env.do(t, "DELETE", "/api/sessions/"+first.ID, "", nil, nil))
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/sessions/"+first.ID, "", nil, &errOut))
}

func TestWebSocketPlay(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "alice1")

	var info service.SessionInfo
	require.Equal(t, http.StatusCreated,
		env.do(t, "POST", "/api/sessions", token, map[string]int{"level": 7}, &info))

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?session=" + info.ID + "&token=" + token
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	initial := read()
	assert.Equal(t, websocket.TypeState, initial.Type)
	require.NotNil(t, initial.State)
	assert.Equal(t, engine.Position{X: 1, Y: 1}, initial.State.PlayerPos)

	require.Eventually(t, func() bool { return env.hub.ClientCount(info.ID) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(websocket.Inbound{Type: websocket.TypeMove, Direction: "right"}))
	msg := read()
	assert.Equal(t, websocket.TypeState, msg.Type)
	assert.Equal(t, engine.Position{X: 2, Y: 1}, msg.State.PlayerPos)

	require.NoError(t, conn.WriteJSON(websocket.Inbound{Type: websocket.TypeMove, Direction: "right"}))
	msg = read()
	assert.Equal(t, websocket.TypeCleared, msg.Type)
	assert.Equal(t, engine.Cleared, msg.State.Status)

	list, err := env.store.ByUser(context.Background(), info.Player.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = env.server.Client().Get(env.server.URL + "/ws?session=ffff")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = env.server.Client().Get(env.server.URL + "/ws?session=ffff&token=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// someone else's session cannot be watched without its owner's token
	token := env.login(t, "alice1")
	var info service.SessionInfo
	require.Equal(t, http.StatusCreated,
		env.do(t, "POST", "/api/sessions", token, map[string]int{"level": 7}, &info))
	resp, err = env.server.Client().Get(env.server.URL + "/ws?session=" + info.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{level.ErrLevelNotFound, http.StatusNotFound},
		{identity.ErrUsernameTaken, http.StatusConflict},
		{identity.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{engine.ErrInvalidDirection, http.StatusBadRequest},
		{results.ErrInvalidResult, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
