package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
)

const instructions = `blockpush - Complete Instructions

GAME OBJECTIVE:
Walk the player onto the goal cell. The level is cleared the moment the
player stands on the goal; the clock stops and, for logged in players, the
time is recorded on the leaderboard.

GRID LEGEND:
• P - Player (your position)
• F - Goal (finish)
• B - Block (pushable)
• # - Wall (impassable)
• . - Empty floor

MOVEMENT RULES:
1. Moving off the grid is rejected.
2. Moving onto empty floor or the goal always succeeds.
3. Moving into a block pushes it one cell further, but only if that cell is
   inside the grid and empty. A block cannot be pushed onto the goal, into a
   wall or into another block.
4. Moving into a wall is rejected.
Rejected moves change nothing and cost nothing but time.

TIMING:
• The clock starts when the session is created and ticks once per second
• Ranking is by clear time; equal times share a rank (1, 1, 3)

STRATEGY:
• Look for a path to F that needs no pushes first
• Before pushing a block, check the cell behind it: pushing a block into a
  corner or against a wall can close a corridor for good
• If the level becomes unsolvable, use reset_game to start over
• bulk_move stops at the first rejected move, so a plan that hits a wall
  tells you exactly where it went wrong

SESSION MANAGEMENT:
• Each session has a unique 4-character ID
• Sessions created while logged in belong to that player
• easy selects level 1, normal selects level 2`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	owner := "anonymous"
	if session.Player.Username != "" {
		owner = session.Player.Username
	}
	return fmt.Sprintf("Session: %s\nLevel: %d (%s)\nPlayer: %s\nCreated: %s\n\n%s",
		session.ID, session.Level, session.Difficulty, owner,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("Position: (%d,%d) | Time: %s | Moves: %d | Pushes: %d\n",
		state.PlayerPos.X, state.PlayerPos.Y, state.ElapsedDisplay, state.Moves, state.Pushes))
	if state.GoalPos != nil {
		result.WriteString(fmt.Sprintf("Goal: (%d,%d)\n", state.GoalPos.X, state.GoalPos.Y))
	} else {
		result.WriteString("Goal: none (this level cannot be cleared)\n")
	}
	if len(state.PossibleMoves) > 0 {
		result.WriteString("Possible moves: " + strings.Join(state.PossibleMoves, ", ") + "\n")
	}
	result.WriteString("\n")
	result.WriteString(renderGrid(state))

	if state.Status == engine.Cleared {
		result.WriteString(fmt.Sprintf("\nCLEARED in %s!", state.ElapsedDisplay))
	}

	return result.String()
}

// renderGrid draws the grid with column and row indices
func renderGrid(state *engine.GameState) string {
	var b strings.Builder

	width := 0
	for _, row := range state.Grid {
		if len(row) > width {
			width = len(row)
		}
	}

	b.WriteString("   ")
	for x := 0; x < width; x++ {
		b.WriteString(fmt.Sprintf("%d", x%10))
	}
	b.WriteString("\n")

	for y, row := range state.Grid {
		b.WriteString(fmt.Sprintf("%2d ", y))
		for _, code := range row {
			b.WriteString(engine.Cell(code).Char())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	m := result.Move

	switch m.Kind {
	case engine.PushMove:
		b.WriteString(fmt.Sprintf("✓ Pushed %s: (%d,%d)→(%d,%d), block to (%d,%d)\n",
			m.Direction, m.From.X, m.From.Y, m.To.X, m.To.Y, m.BlockTo.X, m.BlockTo.Y))
	case engine.PlainMove:
		b.WriteString(fmt.Sprintf("✓ Moved %s: (%d,%d)→(%d,%d)\n",
			m.Direction, m.From.X, m.From.Y, m.To.X, m.To.Y))
	case engine.Rejected:
		b.WriteString(fmt.Sprintf("✗ Move %s rejected: %s\n", m.Direction, m.Reason))
	default:
		b.WriteString(fmt.Sprintf("✗ Move %s ignored\n", m.Direction))
	}

	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Session %s | Executed %d/%d moves | (%d,%d)→(%d,%d)\n",
		sessionID, result.MovesExecuted, result.RequestedMoves,
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y))
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Only the first %d moves were considered\n", result.Limit))
	}

	for i, step := range result.Steps {
		status := "✓"
		if !step.Accepted() {
			status = "✗"
		}
		line := fmt.Sprintf("%d. %s (%d,%d)→(%d,%d) %s %s", i+1, step.Direction,
			step.From.X, step.From.Y, step.To.X, step.To.Y, step.Kind, status)
		if step.Reason != "" {
			line += " (" + step.Reason + ")"
		}
		b.WriteString(line + "\n")
	}

	switch {
	case result.Cleared:
		b.WriteString("Stopped: goal reached\n")
	case result.StopReasonCode != "":
		b.WriteString(fmt.Sprintf("Stopped on move %d: %s\n", result.StoppedOnMove, result.StopReasonCode))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		result += fmt.Sprintf("%d. %s %s (%d,%d)→(%d,%d) at %s\n",
			move.MoveNumber, move.Direction, move.Kind,
			move.From.X, move.From.Y, move.To.X, move.To.Y,
			engine.FormatElapsed(move.Elapsed))
	}

	return result
}

func formatLeaderboard(levelID int, entries []results.Entry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No results for level %d yet", levelID)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Level %d leaderboard:\n\n", levelID))
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%d. %s %s\n", e.Rank, e.Username, engine.FormatElapsed(e.Time)))
	}
	return b.String()
}

// describeCell explains what occupies (x,y) and what moving into it does
func describeCell(state *engine.GameState, x, y int) string {
	if y < 0 || y >= len(state.Grid) || x < 0 || x >= len(state.Grid[y]) {
		return fmt.Sprintf("(%d,%d) is outside the grid: moving there is rejected", x, y)
	}

	cell := engine.Cell(state.Grid[y][x])
	var effect string
	switch cell {
	case engine.Empty:
		effect = "the player can walk here"
	case engine.Goal:
		effect = "walking here clears the level"
	case engine.Block:
		effect = "can be pushed if the cell behind it, in the push direction, is empty"
	case engine.Wall:
		effect = "impassable"
	case engine.Player:
		effect = "the player's current position"
	}

	return fmt.Sprintf("(%d,%d) = %s [%s]: %s", x, y, cell.Char(), cell, effect)
}
