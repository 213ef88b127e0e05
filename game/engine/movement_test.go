package engine

import (
	"math/rand"
	"testing"
)

func TestAttemptMove_Classification(t *testing.T) {
	tests := []struct {
		name      string
		raw       [][]int
		direction Direction
		kind      MoveKind
		reason    string
	}{
		{"into empty", [][]int{{2, 0}}, Right, PlainMove, ""},
		{"into goal", [][]int{{2, 4}}, Right, PlainMove, ""},
		{"into wall", [][]int{{2, 1}}, Right, Rejected, "wall"},
		{"off the left edge", [][]int{{2, 0}}, Left, Rejected, "boundary"},
		{"off the top edge", [][]int{{2, 0}}, Up, Rejected, "boundary"},
		{"push into empty", [][]int{{2, 3, 0}}, Right, PushMove, ""},
		{"push into wall", [][]int{{2, 3, 1}}, Right, Rejected, "block_blocked"},
		{"push into block", [][]int{{2, 3, 3, 0}}, Right, Rejected, "block_blocked"},
		{"push into goal", [][]int{{2, 3, 4}}, Right, Rejected, "block_blocked"},
		{"push off grid", [][]int{{2, 3}}, Right, Rejected, "block_at_boundary"},
		{"push down", [][]int{{2}, {3}, {0}}, Down, PushMove, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := mustEngine(t, test.raw)
			result := e.AttemptMove(test.direction)
			if result.Kind != test.kind {
				t.Fatalf("expected %s, got %s (reason %q)", test.kind, result.Kind, result.Reason)
			}
			if result.Reason != test.reason {
				t.Errorf("expected reason %q, got %q", test.reason, result.Reason)
			}
		})
	}
}

func TestAttemptMove_RejectedLeavesStateUntouched(t *testing.T) {
	e := mustEngine(t, [][]int{{1, 1, 1}, {3, 2, 1}, {1, 1, 1}})
	before := e.grid.Clone()
	pos := e.PlayerPosition()

	for _, d := range Directions {
		result := e.AttemptMove(d)
		if result.Accepted() {
			t.Fatalf("expected %s to be rejected, got %s", d, result.Kind)
		}
	}

	if e.PlayerPosition() != pos {
		t.Errorf("player moved from %v to %v", pos, e.PlayerPosition())
	}
	if before.String() != e.grid.String() {
		t.Errorf("grid changed:\n%s\n->\n%s", before, e.grid)
	}
	if len(e.MoveHistory()) != 0 {
		t.Errorf("rejected moves were recorded in history")
	}
}

func TestAttemptMove_ReachGoalScenario(t *testing.T) {
	e := mustEngine(t, [][]int{{1, 1, 1}, {1, 2, 0}, {1, 0, 4}})

	first := e.AttemptMove(Down)
	if first.Kind != PlainMove || first.Reached {
		t.Fatalf("expected plain move without reaching goal, got %+v", first)
	}
	if e.Cleared() {
		t.Fatal("cleared after first move")
	}

	second := e.AttemptMove(Right)
	if !second.Reached {
		t.Fatalf("expected second move to reach the goal, got %+v", second)
	}
	if e.PlayerPosition() != (Position{X: 2, Y: 2}) {
		t.Errorf("expected player at (2,2), got %v", e.PlayerPosition())
	}
	if !e.Cleared() {
		t.Error("expected cleared status")
	}
	assertSinglePlayer(t, e)
}

func TestAttemptMove_PushScenario(t *testing.T) {
	e := mustEngine(t, [][]int{{2, 3, 0, 1}})

	result := e.AttemptMove(Right)
	if result.Kind != PushMove {
		t.Fatalf("expected push, got %s", result.Kind)
	}
	if result.BlockTo == nil || *result.BlockTo != (Position{X: 2, Y: 0}) {
		t.Errorf("expected block pushed to (2,0), got %v", result.BlockTo)
	}
	if e.PlayerPosition() != (Position{X: 1, Y: 0}) {
		t.Errorf("expected player at (1,0), got %v", e.PlayerPosition())
	}
	if got := e.grid.String(); got != ".PB#" {
		t.Errorf("expected .PB#, got %s", got)
	}

	again := e.AttemptMove(Right)
	if again.Kind != Rejected {
		t.Fatalf("expected second push to be rejected, got %s", again.Kind)
	}
	if got := e.grid.String(); got != ".PB#" {
		t.Errorf("rejected push changed the grid: %s", got)
	}
}

func TestAttemptMove_NoGoalNeverClears(t *testing.T) {
	e := mustEngine(t, [][]int{{2, 0, 0}, {0, 0, 0}})
	sequence := []Direction{Right, Right, Down, Left, Left, Up, Right, Down, Right}

	for _, d := range sequence {
		result := e.AttemptMove(d)
		if result.Reached {
			t.Fatalf("goal reported reached on grid without a goal")
		}
		e.Tick()
	}
	if e.Cleared() {
		t.Error("grid without goal reached cleared state")
	}
	if _, ok := e.GoalPosition(); ok {
		t.Error("expected no goal position")
	}
	if e.Elapsed() != len(sequence) {
		t.Errorf("expected elapsed %d, got %d", len(sequence), e.Elapsed())
	}
}

func TestAttemptMove_IgnoredAfterClear(t *testing.T) {
	e := mustEngine(t, [][]int{{2, 4, 0}})
	e.AttemptMove(Right)
	if !e.Cleared() {
		t.Fatal("expected cleared")
	}

	snapshot := e.grid.String()
	result := e.AttemptMove(Right)
	if result.Kind != Ignored {
		t.Errorf("expected ignored, got %s", result.Kind)
	}
	if result.Reached {
		t.Error("ignored move reported the goal again")
	}
	if e.grid.String() != snapshot {
		t.Error("grid mutated after clear")
	}
	if len(e.PossibleMoves()) != 0 {
		t.Error("expected no possible moves after clear")
	}
}

func TestAttemptMove_GoalIdentitySurvivesOverwrite(t *testing.T) {
	// Arrival overwrites the goal cell with the player; the captured
	// coordinate stays the authoritative target.
	e := mustEngine(t, [][]int{{0, 2, 4}})
	e.AttemptMove(Right)

	goal, ok := e.GoalPosition()
	if !ok || goal != (Position{X: 2, Y: 0}) {
		t.Errorf("goal changed to %v (found=%v)", goal, ok)
	}
	if e.grid.Count(Goal) != 0 {
		t.Error("expected goal cell value to be overwritten by the player")
	}
}

func TestPossibleMoves(t *testing.T) {
	e := mustEngine(t, [][]int{
		{1, 0, 1},
		{3, 2, 0},
		{1, 1, 1},
	})

	possible := e.PossibleMoves()
	expected := []Direction{Up, Right}
	if len(possible) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, possible)
	}
	for i := range expected {
		if possible[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, possible)
		}
	}
}

func TestMoveHistory(t *testing.T) {
	e := mustEngine(t, [][]int{{2, 0, 3, 0}})
	e.AttemptMove(Right)
	e.AttemptMove(Left)
	e.AttemptMove(Left)
	e.AttemptMove(Right)
	e.AttemptMove(Right)

	history := e.MoveHistory()
	if len(history) != 4 {
		t.Fatalf("expected 4 accepted moves, got %d", len(history))
	}
	if history[3].Kind != PushMove {
		t.Errorf("expected last entry to be a push, got %s", history[3].Kind)
	}
	for i, entry := range history {
		if entry.MoveNumber != i+1 {
			t.Errorf("entry %d has move number %d", i, entry.MoveNumber)
		}
	}
}

// randomGrid builds a grid with exactly one player and a random mix of the
// other cell types.
func randomGrid(rng *rand.Rand, width, height int) [][]int {
	raw := make([][]int, height)
	for y := range raw {
		raw[y] = make([]int, width)
		for x := range raw[y] {
			switch n := rng.Intn(10); {
			case n < 4:
				raw[y][x] = int(Empty)
			case n < 6:
				raw[y][x] = int(Wall)
			default:
				raw[y][x] = int(Block)
			}
		}
	}
	raw[rng.Intn(height)][rng.Intn(width)] = int(Player)
	return raw
}

func TestAttemptMove_OnlyExpectedCellsChange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		raw := randomGrid(rng, 1+rng.Intn(6), 1+rng.Intn(6))

		for _, d := range Directions {
			e := mustEngine(t, raw)
			before := e.grid.Clone()
			result := e.AttemptMove(d)

			changed := map[Position]bool{}
			for y, row := range e.grid {
				for x, cell := range row {
					if before[y][x] != cell {
						changed[Position{X: x, Y: y}] = true
					}
				}
			}

			switch result.Kind {
			case Rejected:
				if len(changed) != 0 {
					t.Fatalf("grid %v dir %s: rejected move changed %v", raw, d, changed)
				}
				if e.PlayerPosition() != result.From {
					t.Fatalf("grid %v dir %s: rejected move moved the player", raw, d)
				}
			case PlainMove:
				if len(changed) != 2 || !changed[result.From] || !changed[result.To] {
					t.Fatalf("grid %v dir %s: plain move changed %v", raw, d, changed)
				}
			case PushMove:
				if len(changed) != 3 || !changed[*result.BlockTo] {
					t.Fatalf("grid %v dir %s: push changed %v", raw, d, changed)
				}
				if e.grid.At(*result.BlockTo) != Block {
					t.Fatalf("grid %v dir %s: beyond cell is not a block", raw, d)
				}
			default:
				t.Fatalf("unexpected kind %s", result.Kind)
			}

			assertSinglePlayer(t, e)
		}
	}
}
