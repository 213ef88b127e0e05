package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyGrid        = errors.New("grid has no cells")
	ErrUnknownCell      = errors.New("unknown cell code")
	ErrInvalidDirection = errors.New("invalid direction")
)

// Grid is the playfield, indexed Grid[row][column]
type Grid [][]Cell

// DecodeGrid converts the integer-coded wire format into a Grid.
// Row lengths are taken as supplied.
func DecodeGrid(raw [][]int) (Grid, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyGrid
	}

	grid := make(Grid, len(raw))
	cells := 0
	for y, row := range raw {
		grid[y] = make([]Cell, len(row))
		for x, code := range row {
			cell := Cell(code)
			if !cell.Valid() {
				return nil, fmt.Errorf("%w %d at (%d,%d)", ErrUnknownCell, code, x, y)
			}
			grid[y][x] = cell
			cells++
		}
	}
	if cells == 0 {
		return nil, ErrEmptyGrid
	}

	return grid, nil
}

// Encode converts the grid back into the integer wire format
func (g Grid) Encode() [][]int {
	raw := make([][]int, len(g))
	for y, row := range g {
		raw[y] = make([]int, len(row))
		for x, cell := range row {
			raw[y][x] = int(cell)
		}
	}
	return raw
}

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	clone := make(Grid, len(g))
	for y, row := range g {
		clone[y] = append([]Cell(nil), row...)
	}
	return clone
}

// Height returns the number of rows
func (g Grid) Height() int {
	return len(g)
}

// Width returns the length of the longest row
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// InBounds reports whether p addresses an existing cell
func (g Grid) InBounds(p Position) bool {
	if p.Y < 0 || p.Y >= len(g) {
		return false
	}
	return p.X >= 0 && p.X < len(g[p.Y])
}

// At returns the cell at p. Callers must check InBounds first.
func (g Grid) At(p Position) Cell {
	return g[p.Y][p.X]
}

func (g Grid) set(p Position, c Cell) {
	g[p.Y][p.X] = c
}

// Find returns the first position holding c in row-major order
func (g Grid) Find(c Cell) (Position, bool) {
	for y, row := range g {
		for x, cell := range row {
			if cell == c {
				return Position{X: x, Y: y}, true
			}
		}
	}
	return Position{}, false
}

// Count returns how many cells hold c
func (g Grid) Count(c Cell) int {
	count := 0
	for _, row := range g {
		for _, cell := range row {
			if cell == c {
				count++
			}
		}
	}
	return count
}

// String renders the grid one row per line using Cell.Char
func (g Grid) String() string {
	var b strings.Builder
	for y, row := range g {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, cell := range row {
			b.WriteString(cell.Char())
		}
	}
	return b.String()
}
