package level

import (
	"errors"
	"fmt"

	"github.com/wricardo/blockpush/game/engine"
)

// DefaultSolveLimit bounds the number of distinct positions Solve explores
const DefaultSolveLimit = 100000

var (
	ErrNoSolution    = errors.New("goal cannot be reached")
	ErrSolveLimit    = errors.New("search limit reached")
	ErrNoGoal        = errors.New("level has no goal")
	errSolveNotMoved = errors.New("replay diverged")
)

// Solve finds a shortest sequence of inputs that clears the level. It runs a
// breadth-first search over grid contents, replaying candidate paths through
// the engine so pushes and the goal rule behave exactly as in play.
func Solve(l *Level, limit int) ([]engine.Direction, error) {
	if limit <= 0 {
		limit = DefaultSolveLimit
	}

	start, err := engine.NewEngine(l.Objects)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", l.ID, err)
	}
	if _, ok := start.GoalPosition(); !ok {
		return nil, ErrNoGoal
	}

	seen := map[string]bool{start.Grid().String(): true}
	queue := [][]engine.Direction{nil}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			next := append(append(make([]engine.Direction, 0, len(path)+1), path...), d)
			e, result, err := replay(l.Objects, next)
			if err != nil {
				continue
			}
			if result.Reached {
				return next, nil
			}
			key := e.Grid().String()
			if seen[key] {
				continue
			}
			if len(seen) >= limit {
				return nil, ErrSolveLimit
			}
			seen[key] = true
			queue = append(queue, next)
		}
	}

	return nil, ErrNoSolution
}

// replay runs path on a fresh engine and returns the result of the last
// input; it fails when any input is rejected
func replay(raw [][]int, path []engine.Direction) (*engine.GameEngine, engine.MoveResult, error) {
	e, err := engine.NewEngine(raw)
	if err != nil {
		return nil, engine.MoveResult{}, err
	}
	var result engine.MoveResult
	for _, d := range path {
		result = e.AttemptMove(d)
		if !result.Accepted() {
			return nil, result, errSolveNotMoved
		}
	}
	return e, result, nil
}
