package level

import (
	"fmt"

	"github.com/wricardo/blockpush/game/engine"
)

// Report is the result of inspecting a level for data-quality problems.
// Errors make a level unusable; warnings describe data the engine tolerates.
type Report struct {
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Rectangular bool     `json:"rectangular"`
	Players     int      `json:"players"`
	Goals       int      `json:"goals"`
	Blocks      int      `json:"blocks"`
	Walls       int      `json:"walls"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Valid reports whether no errors were found
func (r *Report) Valid() bool {
	return len(r.Errors) == 0
}

// Inspect checks the structure and contents of a level
func Inspect(l *Level) *Report {
	report := &Report{Rectangular: true}

	if l.ID <= 0 {
		report.Errors = append(report.Errors, fmt.Sprintf("level id must be positive, got %d", l.ID))
	}

	grid, err := engine.DecodeGrid(l.Objects)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	report.Height = grid.Height()
	report.Width = grid.Width()
	for y, row := range grid {
		if len(row) != report.Width {
			report.Rectangular = false
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("row %d has %d cells, expected %d", y, len(row), report.Width))
		}
	}

	report.Players = grid.Count(engine.Player)
	report.Goals = grid.Count(engine.Goal)
	report.Blocks = grid.Count(engine.Block)
	report.Walls = grid.Count(engine.Wall)

	switch {
	case report.Players == 0:
		report.Warnings = append(report.Warnings, "no player cell, player starts at (0,0)")
	case report.Players > 1:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d player cells, the first in row-major order is used", report.Players))
	}
	switch {
	case report.Goals == 0:
		report.Warnings = append(report.Warnings, "no goal cell, the level can never be cleared")
	case report.Goals > 1:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d goal cells, only the first is the target", report.Goals))
	}

	return report
}

// Reachability reports whether the goal can be reached from the start,
// once walking only and once allowing pushes judged cell by cell (a block
// can be passed when the cell behind it along the step is open).
type Reachability struct {
	Walking bool `json:"walking"`
	Pushing bool `json:"pushing"`
}

// Reach runs a breadth-first search over the level's grid
func Reach(l *Level) (Reachability, error) {
	grid, err := engine.DecodeGrid(l.Objects)
	if err != nil {
		return Reachability{}, err
	}
	start, _ := grid.Find(engine.Player)
	goal, ok := grid.Find(engine.Goal)
	if !ok {
		return Reachability{}, nil
	}

	return Reachability{
		Walking: search(grid, start, goal, false),
		Pushing: search(grid, start, goal, true),
	}, nil
}

func search(grid engine.Grid, start, goal engine.Position, pushing bool) bool {
	visited := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			return true
		}

		for _, d := range engine.Directions {
			next := current.Add(d)
			if !grid.InBounds(next) || visited[next] {
				continue
			}
			switch grid.At(next) {
			case engine.Empty, engine.Goal, engine.Player:
			case engine.Block:
				beyond := next.Add(d)
				if !pushing || !grid.InBounds(beyond) || grid.At(beyond) == engine.Wall {
					continue
				}
			default:
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return false
}
