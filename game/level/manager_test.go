package level

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func writeLevelFile(t *testing.T, dir string, id int, lvl any) {
	t.Helper()
	data, err := json.Marshal(lvl)
	if err != nil {
		t.Fatalf("Failed to marshal level: %v", err)
	}
	path := filepath.Join(dir, "level_"+strconv.Itoa(id)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input    string
		expected Difficulty
		levelID  int
	}{
		{"easy", Easy, 1},
		{"EASY", Easy, 1},
		{"normal", Normal, 2},
		{"", Normal, 2},
		{"hard", Normal, 2},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			d := ParseDifficulty(test.input)
			if d != test.expected {
				t.Errorf("expected %s, got %s", test.expected, d)
			}
			if d.LevelID() != test.levelID {
				t.Errorf("expected level %d, got %d", test.levelID, d.LevelID())
			}
			if DifficultyForLevel(d.LevelID()) != d {
				t.Errorf("DifficultyForLevel(%d) did not round-trip", d.LevelID())
			}
		})
	}
}

func TestManager_BuiltinLevels(t *testing.T) {
	manager, err := NewManager(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	for _, d := range []Difficulty{Easy, Normal} {
		t.Run(string(d), func(t *testing.T) {
			lvl, err := manager.Supply(context.Background(), d)
			if err != nil {
				t.Fatalf("Supply(%s): %v", d, err)
			}
			if lvl.ID != d.LevelID() {
				t.Errorf("expected level %d, got %d", d.LevelID(), lvl.ID)
			}

			report := Inspect(lvl)
			if !report.Valid() || len(report.Warnings) != 0 {
				t.Errorf("built-in level has problems: %+v", report)
			}

			reach, err := Reach(lvl)
			if err != nil {
				t.Fatalf("Reach: %v", err)
			}
			if !reach.Pushing {
				t.Errorf("built-in level %d goal is unreachable", lvl.ID)
			}
		})
	}
}

func TestManager_SupplyReturnsCopy(t *testing.T) {
	manager, _ := NewManager("")

	first, err := manager.Supply(context.Background(), Easy)
	if err != nil {
		t.Fatalf("Supply: %v", err)
	}
	first.Objects[1][1] = 0

	second, _ := manager.Supply(context.Background(), Easy)
	if second.Objects[1][1] != 2 {
		t.Error("mutating a supplied level changed the cached copy")
	}
}

func TestManager_FileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, 1, Level{ID: 1, Name: "Custom", Objects: [][]int{{2, 0, 4}}})

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	lvl, err := manager.LoadLevel(1)
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	if lvl.Name != "Custom" || len(lvl.Objects) != 1 {
		t.Errorf("expected file level, got %+v", lvl)
	}
}

func TestManager_LoadLevelErrors(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, 5, Level{ID: 6, Objects: [][]int{{2}}})
	writeLevelFile(t, dir, 7, Level{ID: 7, Objects: [][]int{{2, 9}}})
	if err := os.WriteFile(filepath.Join(dir, "level_8.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, _ := NewManager(dir)

	tests := []struct {
		name    string
		id      int
		wantErr error
	}{
		{"missing level", 3, ErrLevelNotFound},
		{"id mismatch", 5, ErrInvalidLevel},
		{"unknown cell", 7, ErrInvalidLevel},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := manager.LoadLevel(test.id)
			if !errors.Is(err, test.wantErr) {
				t.Errorf("expected %v, got %v", test.wantErr, err)
			}
		})
	}

	if _, err := manager.LoadLevel(8); err == nil {
		t.Error("expected parse error for malformed json")
	}
}

func TestManager_ListLevels(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, 3, Level{ID: 3, Name: "Third", Objects: [][]int{{2, 3, 0, 4}}})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, _ := NewManager(dir)
	infos, err := manager.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(infos))
	}
	if infos[2].ID != 3 || infos[2].Builtin || infos[2].Width != 4 {
		t.Errorf("unexpected info for level 3: %+v", infos[2])
	}
	if !infos[0].Builtin {
		t.Error("expected level 1 to be built-in")
	}
}

func TestManager_SaveLevel(t *testing.T) {
	dir := t.TempDir()
	manager, _ := NewManager(dir)

	lvl := &Level{ID: 4, Name: "Saved", Objects: [][]int{{2, 4}}}
	if err := manager.SaveLevel(lvl); err != nil {
		t.Fatalf("SaveLevel: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "level_4.json")); err != nil {
		t.Errorf("expected level file on disk: %v", err)
	}

	manager.RefreshCache()
	loaded, err := manager.LoadLevel(4)
	if err != nil || loaded.Name != "Saved" {
		t.Errorf("expected saved level after refresh, got %+v (%v)", loaded, err)
	}

	if err := manager.SaveLevel(&Level{ID: 5}); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel for empty level, got %v", err)
	}
}

func TestManager_ConcurrentLoad(t *testing.T) {
	manager, _ := NewManager("")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := manager.LoadLevel(1 + i%2); err != nil {
				t.Errorf("LoadLevel: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestNewManager_FileAsDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Error("expected error when level path is a file")
	}
}
