package engine

import (
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Lifecycle
	Initialize(grid Grid)
	Tick() bool
	Status() Status
	Cleared() bool
	Elapsed() int

	// Movement operations
	AttemptMove(direction Direction) MoveResult
	CanMove(direction Direction) bool
	PossibleMoves() []Direction

	// Queries
	PlayerPosition() Position
	GoalPosition() (Position, bool)
	Snapshot() *GameState
	MoveHistory() []MoveHistoryEntry
}

// GameEngine implements the Engine interface. It owns its grid exclusively
// and is not safe for concurrent use; callers serialize access.
type GameEngine struct {
	grid        Grid
	player      Position
	playerFound bool
	goal        Position
	hasGoal     bool
	elapsed     int
	status      Status
	initialized bool

	moves    int
	pushes   int
	lastMove *MoveResult
	history  []MoveHistoryEntry

	now func() time.Time
}

// NewEngine decodes the integer-coded grid and returns an initialized engine
func NewEngine(raw [][]int) (*GameEngine, error) {
	grid, err := DecodeGrid(raw)
	if err != nil {
		return nil, err
	}

	e := &GameEngine{now: time.Now}
	e.Initialize(grid)
	return e, nil
}

// Initialize takes ownership of grid and resets all derived state.
// The first Player cell in row-major order is the start; without one the
// player starts at (0,0). The first Goal cell is captured once as the target.
func (e *GameEngine) Initialize(grid Grid) {
	if e.now == nil {
		e.now = time.Now
	}

	e.grid = grid
	e.player, e.playerFound = grid.Find(Player)
	e.goal, e.hasGoal = grid.Find(Goal)
	e.elapsed = 0
	e.status = Active
	e.moves = 0
	e.pushes = 0
	e.lastMove = nil
	e.history = nil
	e.initialized = true
}

// Resume initializes from a grid saved mid-level and carries the counters
// over. goal is the coordinate captured when the level was first loaded; the
// saved grid may no longer hold a Goal cell there. A nil goal falls back to
// scanning the grid.
func (e *GameEngine) Resume(grid Grid, goal *Position, elapsed, moves, pushes int) {
	e.Initialize(grid)
	if goal != nil {
		e.goal, e.hasGoal = *goal, true
	}
	if elapsed > 0 {
		e.elapsed = elapsed
	}
	e.moves = moves
	e.pushes = pushes
}

// Tick advances the elapsed time by one second while the level is active.
// It returns false when the tick was ignored.
func (e *GameEngine) Tick() bool {
	if !e.initialized || e.status == Cleared {
		return false
	}
	e.elapsed++
	return true
}

// Status returns the lifecycle state
func (e *GameEngine) Status() Status {
	return e.status
}

// Cleared reports whether the goal has been reached
func (e *GameEngine) Cleared() bool {
	return e.status == Cleared
}

// Elapsed returns the elapsed whole seconds
func (e *GameEngine) Elapsed() int {
	return e.elapsed
}

// PlayerPosition returns the current player position
func (e *GameEngine) PlayerPosition() Position {
	return e.player
}

// PlayerFound reports whether the grid supplied a Player cell
func (e *GameEngine) PlayerFound() bool {
	return e.playerFound
}

// GoalPosition returns the goal captured at load time
func (e *GameEngine) GoalPosition() (Position, bool) {
	return e.goal, e.hasGoal
}

// Grid returns a copy of the current grid
func (e *GameEngine) Grid() Grid {
	return e.grid.Clone()
}

// MoveHistory returns a copy of the accepted moves
func (e *GameEngine) MoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry(nil), e.history...)
}

// Snapshot returns a read-only copy of the engine state
func (e *GameEngine) Snapshot() *GameState {
	state := &GameState{
		Grid:           e.grid.Encode(),
		Width:          e.grid.Width(),
		Height:         e.grid.Height(),
		PlayerPos:      e.player,
		Elapsed:        e.elapsed,
		Status:         e.status,
		Moves:          e.moves,
		Pushes:         e.pushes,
		ElapsedDisplay: FormatElapsed(e.elapsed),
	}
	if e.hasGoal {
		goal := e.goal
		state.GoalPos = &goal
	}
	if e.lastMove != nil {
		last := *e.lastMove
		state.LastMove = &last
	}
	for _, d := range e.PossibleMoves() {
		state.PossibleMoves = append(state.PossibleMoves, d.String())
	}
	return state
}
