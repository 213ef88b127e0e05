package level

import (
	"context"
	"fmt"
	"strings"

	"github.com/wricardo/blockpush/game/engine"
)

// Difficulty is the player-facing level selector
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
)

// Level identifiers the difficulties map to
const (
	EasyLevelID   = 1
	NormalLevelID = 2
)

// ParseDifficulty maps a selector to a Difficulty. Anything other than
// "easy" selects Normal.
func ParseDifficulty(s string) Difficulty {
	if strings.EqualFold(strings.TrimSpace(s), string(Easy)) {
		return Easy
	}
	return Normal
}

// LevelID returns the opaque level identifier for the difficulty
func (d Difficulty) LevelID() int {
	if d == Easy {
		return EasyLevelID
	}
	return NormalLevelID
}

// DifficultyForLevel is the inverse of Difficulty.LevelID
func DifficultyForLevel(id int) Difficulty {
	if id == EasyLevelID {
		return Easy
	}
	return Normal
}

// Level is a playfield as delivered by the level supplier
type Level struct {
	ID          int     `json:"level"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Objects     [][]int `json:"objects"`
}

// Grid decodes the integer-coded objects into an engine grid
func (l *Level) Grid() (engine.Grid, error) {
	grid, err := engine.DecodeGrid(l.Objects)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", l.ID, err)
	}
	return grid, nil
}

// Supplier provides the initial grid for a difficulty
type Supplier interface {
	Supply(ctx context.Context, difficulty Difficulty) (*Level, error)
}

// Info summarizes a level for listings
type Info struct {
	ID          int    `json:"level"`
	Filename    string `json:"filename,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Builtin     bool   `json:"builtin"`
}
