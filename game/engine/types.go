package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cell represents the content of a single grid cell. The integer values are
// the level wire format and must not be renumbered.
type Cell int

const (
	Empty  Cell = 0
	Wall   Cell = 1
	Player Cell = 2
	Block  Cell = 3
	Goal   Cell = 4
)

// String returns the lowercase name of the cell type
func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Player:
		return "player"
	case Block:
		return "block"
	case Goal:
		return "goal"
	default:
		return fmt.Sprintf("cell(%d)", int(c))
	}
}

// Char returns the single character used in text renderings of the grid
func (c Cell) Char() string {
	switch c {
	case Wall:
		return "#"
	case Player:
		return "P"
	case Block:
		return "B"
	case Goal:
		return "F"
	default:
		return "."
	}
}

// Valid reports whether c is one of the five known cell codes
func (c Cell) Valid() bool {
	return c >= Empty && c <= Goal
}

// Position represents x,y coordinates. X is the column, Y the row.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by the delta of d
func (p Position) Add(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four directional inputs
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Delta returns the unit vector for the direction
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// ParseDirection converts "up", "down", "left" or "right" (any case) to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "arrowup":
		return Up, nil
	case "down", "arrowdown":
		return Down, nil
	case "left", "arrowleft":
		return Left, nil
	case "right", "arrowright":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Status is the engine lifecycle state
type Status int

const (
	Active Status = iota
	Cleared
)

func (s Status) String() string {
	if s == Cleared {
		return "cleared"
	}
	return "active"
}

// MarshalJSON encodes the status by name
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status name
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "active":
		*s = Active
	case "cleared":
		*s = Cleared
	default:
		return fmt.Errorf("unknown status %q", name)
	}
	return nil
}

// MoveKind classifies the outcome of a directional input
type MoveKind string

const (
	Rejected  MoveKind = "rejected"
	PlainMove MoveKind = "move"
	PushMove  MoveKind = "push"
	// Ignored is reported for input received after the level was cleared
	Ignored MoveKind = "ignored"
)

// MoveResult describes a single AttemptMove call
type MoveResult struct {
	Direction Direction `json:"direction"`
	Kind      MoveKind  `json:"kind"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	// BlockTo is set for push moves only
	BlockTo *Position `json:"block_to,omitempty"`
	Reached bool      `json:"reached"`
	// Reason explains a rejection ("boundary", "wall", "block_blocked", ...)
	Reason string `json:"reason,omitempty"`
}

// Accepted reports whether the move mutated the grid
func (r MoveResult) Accepted() bool {
	return r.Kind == PlainMove || r.Kind == PushMove
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Direction  Direction `json:"direction"`
	Kind       MoveKind  `json:"kind"`
	From       Position  `json:"from"`
	To         Position  `json:"to"`
	Elapsed    int       `json:"elapsed"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}

// GameState is a read-only snapshot of the engine handed to renderers and transports
type GameState struct {
	Grid           [][]int            `json:"grid"`
	Width          int                `json:"width"`
	Height         int                `json:"height"`
	PlayerPos      Position           `json:"player_pos"`
	GoalPos        *Position          `json:"goal_pos,omitempty"`
	Elapsed        int                `json:"elapsed"`
	Status         Status             `json:"status"`
	Moves          int                `json:"moves"`
	Pushes         int                `json:"pushes"`
	LastMove       *MoveResult        `json:"last_move,omitempty"`
	MoveHistory    []MoveHistoryEntry `json:"move_history,omitempty"`
	PossibleMoves  []string           `json:"possible_moves,omitempty"`
	ElapsedDisplay string             `json:"elapsed_display"`
}

// FormatElapsed renders seconds as m:ss
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
