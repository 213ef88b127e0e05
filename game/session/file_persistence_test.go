package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/blockpush/game/engine"
)

func TestFilePersistence(t *testing.T) {
	fp, err := NewFilePersistence(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	data := &PersistedSessionData{
		ID:        "ab12",
		LevelID:   2,
		Player:    Player{UserID: "u1", Username: "alice"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Grid:      [][]int{{2, 0, 4}},
		Elapsed:   7,
		Moves:     1,
	}

	t.Run("save and load", func(t *testing.T) {
		if err := fp.Save(data); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if !fp.Exists("AB12") {
			t.Error("Expected case-insensitive Exists")
		}
		loaded, err := fp.Load("ab12")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if loaded.LevelID != 2 || loaded.Elapsed != 7 || loaded.Player.Username != "alice" {
			t.Errorf("Unexpected record %+v", loaded)
		}
		if !loaded.CreatedAt.Equal(data.CreatedAt) {
			t.Errorf("Expected created_at %v, got %v", data.CreatedAt, loaded.CreatedAt)
		}
	})

	t.Run("list all", func(t *testing.T) {
		ids, err := fp.ListAll()
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(ids) != 1 || ids[0] != "ab12" {
			t.Errorf("Expected [ab12], got %v", ids)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := fp.Delete("ab12"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := fp.Load("ab12"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
		if err := fp.Delete("ab12"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		if err := os.WriteFile(fp.getFilePath("bad1"), []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := fp.Load("bad1"); err == nil {
			t.Error("Expected error for corrupt session file")
		}
	})
}

func TestManagerWithPersistence(t *testing.T) {
	fp, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	opts := Options{TickInterval: time.Hour}

	manager := NewManagerWithPersistence(fp, opts)
	sess, err := manager.Create("keep", createTestLevel(), Player{Username: "alice"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !fp.Exists("keep") {
		t.Fatal("Session should be saved on creation")
	}

	sess.tick()
	sess.tick()
	sess.Move(context.Background(), engine.Right)
	manager.CloseAll()

	t.Run("restart restores progress", func(t *testing.T) {
		restarted := NewManagerWithPersistence(fp, opts)
		defer restarted.CloseAll()

		if err := restarted.LoadPersistedSessions(); err != nil {
			t.Fatalf("LoadPersistedSessions: %v", err)
		}
		restored, err := restarted.Get("keep")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		state := restored.State()
		if state.Elapsed != 2 || state.Moves != 1 {
			t.Errorf("Expected elapsed 2 and 1 move, got %d and %d", state.Elapsed, state.Moves)
		}
		if state.PlayerPos != (engine.Position{X: 2, Y: 1}) {
			t.Errorf("Expected player at (2,1), got %v", state.PlayerPos)
		}
		if state.GoalPos == nil || *state.GoalPos != (engine.Position{X: 3, Y: 3}) {
			t.Errorf("Expected goal at (3,3), got %v", state.GoalPos)
		}
		if restored.Player.Username != "alice" {
			t.Errorf("Expected player alice, got %q", restored.Player.Username)
		}
	})

	t.Run("cleared sessions are dropped from storage", func(t *testing.T) {
		m := NewManagerWithPersistence(fp, opts)
		defer m.CloseAll()

		win, _ := m.Create("win1", testLevel(1, [][]int{{2, 4}}), Player{})
		win.Move(context.Background(), engine.Right)
		if err := m.Save("win1"); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if fp.Exists("win1") {
			t.Error("Cleared session should be removed from storage")
		}
	})

	t.Run("delete removes the file", func(t *testing.T) {
		m := NewManagerWithPersistence(fp, opts)
		defer m.CloseAll()

		if err := m.Delete("keep"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if fp.Exists("keep") {
			t.Error("Expected persisted session to be deleted")
		}
	})
}

func TestManagerWithPersistence_GoalSurvivesRestart(t *testing.T) {
	fp, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	opts := Options{TickInterval: time.Hour}

	// the player starts on the goal, so the first move empties that cell
	manager := NewManagerWithPersistence(fp, opts)
	sess, err := manager.Create("away", testLevel(3, [][]int{{4, 0, 0}}), Player{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess.Move(context.Background(), engine.Right)
	manager.CloseAll()

	data, err := fp.Load("away")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if data.Goal == nil || *data.Goal != (engine.Position{X: 0, Y: 0}) {
		t.Fatalf("Expected goal (0,0) to be stored, got %v", data.Goal)
	}

	restarted := NewManagerWithPersistence(fp, opts)
	defer restarted.CloseAll()
	if err := restarted.LoadPersistedSessions(); err != nil {
		t.Fatalf("LoadPersistedSessions: %v", err)
	}
	restored, err := restarted.Get("away")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	result, state, err := restored.Move(context.Background(), engine.Left)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !result.Reached || state.Status != engine.Cleared {
		t.Errorf("Expected the restored session to clear on the goal, got %+v", result)
	}
}
