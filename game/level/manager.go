package level

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)

const filePrefix = "level_"

// Manager handles level loading and caching. Levels live in dir as
// level_<id>.json; levels 1 and 2 fall back to built-in layouts when no
// file overrides them.
type Manager struct {
	levelDir string
	levels   map[int]*Level
	mu       sync.RWMutex
}

// NewManager creates a new level manager. A missing directory is not an
// error: only the built-in levels are served then.
func NewManager(levelDir string) (*Manager, error) {
	if levelDir != "" {
		info, err := os.Stat(levelDir)
		switch {
		case os.IsNotExist(err):
			log.WithField("dir", levelDir).Warn("[LEVEL] level directory does not exist, serving built-in levels")
		case err != nil:
			return nil, fmt.Errorf("failed to stat level directory: %w", err)
		case !info.IsDir():
			return nil, fmt.Errorf("level path is not a directory: %s", levelDir)
		}
	}

	return &Manager{
		levelDir: levelDir,
		levels:   make(map[int]*Level),
	}, nil
}

// Supply implements Supplier
func (m *Manager) Supply(ctx context.Context, difficulty Difficulty) (*Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lvl, err := m.LoadLevel(difficulty.LevelID())
	if err != nil {
		return nil, err
	}

	report := Inspect(lvl)
	for _, warning := range report.Warnings {
		log.WithFields(log.Fields{"level_id": lvl.ID, "difficulty": difficulty}).Warnf("[LEVEL] %s", warning)
	}

	return lvl.clone(), nil
}

// LoadLevel loads a level by id
func (m *Manager) LoadLevel(id int) (*Level, error) {
	m.mu.RLock()
	// Check cache first
	if lvl, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return lvl, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if lvl, exists := m.levels[id]; exists {
		return lvl, nil
	}

	lvl, err := m.readLevelFile(id)
	if errors.Is(err, ErrLevelNotFound) {
		builtin, ok := builtinLevels[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrLevelNotFound, id)
		}
		lvl = builtin.clone()
	} else if err != nil {
		return nil, err
	}

	m.levels[id] = lvl
	return lvl, nil
}

func (m *Manager) readLevelFile(id int) (*Level, error) {
	if m.levelDir == "" {
		return nil, ErrLevelNotFound
	}

	data, err := os.ReadFile(m.levelPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("failed to parse level %d: %w", id, err)
	}
	if lvl.ID == 0 {
		lvl.ID = id
	}
	if lvl.ID != id {
		return nil, fmt.Errorf("%w: file for level %d declares level %d", ErrInvalidLevel, id, lvl.ID)
	}
	if report := Inspect(&lvl); !report.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLevel, strings.Join(report.Errors, "; "))
	}

	return &lvl, nil
}

// ListLevels returns information about all available levels
func (m *Manager) ListLevels() ([]*Info, error) {
	ids := map[int]string{}
	for id := range builtinLevels {
		ids[id] = ""
	}

	if m.levelDir != "" {
		entries, err := os.ReadDir(m.levelDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read level directory: %w", err)
		}
		for _, entry := range entries {
			id, ok := parseLevelFilename(entry.Name())
			if entry.IsDir() || !ok {
				continue
			}
			ids[id] = entry.Name()
		}
	}

	var infos []*Info
	for id, filename := range ids {
		lvl, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			log.WithError(err).WithField("level_id", id).Warn("[LEVEL] skipping level")
			continue
		}
		report := Inspect(lvl)
		infos = append(infos, &Info{
			ID:          id,
			Filename:    filename,
			Name:        lvl.Name,
			Description: lvl.Description,
			Width:       report.Width,
			Height:      report.Height,
			Builtin:     filename == "",
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// SaveLevel writes a level to disk and refreshes the cache
func (m *Manager) SaveLevel(lvl *Level) error {
	if m.levelDir == "" {
		return fmt.Errorf("no level directory configured")
	}
	if report := Inspect(lvl); !report.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidLevel, strings.Join(report.Errors, "; "))
	}

	data, err := json.MarshalIndent(lvl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}
	if err := os.MkdirAll(m.levelDir, 0755); err != nil {
		return fmt.Errorf("failed to create level directory: %w", err)
	}
	if err := os.WriteFile(m.levelPath(lvl.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[lvl.ID] = lvl.clone()
	m.mu.Unlock()

	return nil
}

// RefreshCache drops all cached levels so they are re-read on next use
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = make(map[int]*Level)
}

func (m *Manager) levelPath(id int) string {
	return filepath.Join(m.levelDir, fmt.Sprintf("%s%d.json", filePrefix, id))
}

func parseLevelFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (l *Level) clone() *Level {
	c := *l
	c.Objects = make([][]int, len(l.Objects))
	for i, row := range l.Objects {
		c.Objects[i] = append([]int(nil), row...)
	}
	return &c
}
