package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/blockpush/api"
	"github.com/wricardo/blockpush/client"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Tr0ub4dor&3-horse-staple"

func newServer(t *testing.T) (*httptest.Server, *results.MemoryStore) {
	t.Helper()

	levels, err := level.NewManager(t.TempDir())
	require.NoError(t, err)

	store := results.NewMemoryStore()
	sessions := session.NewManager(session.Options{
		TickInterval: time.Hour,
		Sink:         service.NewStoreSink(store),
	})
	t.Cleanup(sessions.CloseAll)

	users := identity.NewService(identity.NewMemoryRepo(),
		identity.NewJwtService("test-secret", "blockpush-test"),
		identity.NewMemoryRevoker(), store,
		identity.Config{HashCost: bcrypt.MinCost})

	srv := httptest.NewServer(api.NewServer(service.NewGameService(sessions, levels, store), users, nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestRun_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"level":5,"objects":[[2,3,0,0,0],[1,1,1,4,1]]}`), 0o644))

	var out bytes.Buffer
	err := run(context.Background(), &out, client.New("http://127.0.0.1:0"), options{file: path})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Level 5 solved in 4 moves")
	assert.Contains(t, out.String(), "right right right down")
}

func TestRun_Unsolvable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"level":5,"objects":[[2,3,1,4]]}`), 0o644))

	err := run(context.Background(), &bytes.Buffer{}, client.New("http://127.0.0.1:0"), options{file: path})
	assert.ErrorIs(t, err, level.ErrNoSolution)
}

func TestRun_PlayOnServer(t *testing.T) {
	srv, store := newServer(t)
	ctx := context.Background()

	_, err := client.New(srv.URL).Register(ctx, "solver1", strongPassword)
	require.NoError(t, err)

	var out bytes.Buffer
	err = run(ctx, &out, client.New(srv.URL), options{
		difficulty: "normal",
		play:       true,
		user:       "solver1",
		password:   strongPassword,
	})
	require.NoError(t, err, out.String())
	assert.True(t, strings.Contains(out.String(), "Cleared in 0:00"), out.String())

	recorded, err := store.ByLevel(ctx, level.NormalLevelID)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "solver1", recorded[0].Username)
}

func TestRun_PlayAnonymously(t *testing.T) {
	srv, store := newServer(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, &out, client.New(srv.URL), options{difficulty: "easy", play: true}))
	assert.Contains(t, out.String(), "Cleared")

	recorded, err := store.ByLevel(ctx, level.EasyLevelID)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}
