// Package engine provides the grid movement and block-pushing rules of the game.
//
// The engine owns one playfield, the player's cached position, the goal
// coordinate captured at load time and the elapsed-time counter. It exposes a
// single transition, AttemptMove, and a Tick for the timer.
//
// Usage:
//
//	eng, err := engine.NewEngine([][]int{
//		{1, 1, 1},
//		{1, 2, 0},
//		{1, 0, 4},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.AttemptMove(engine.Down)
//	result := eng.AttemptMove(engine.Right)
//	if result.Reached {
//		fmt.Println("cleared in", eng.Elapsed(), "seconds")
//	}
//
// Game Rules:
//
// The player steps into adjacent Empty or Goal cells. Stepping into a Block
// pushes it one cell further when that cell is Empty; otherwise the move is
// rejected. Walls and the grid edge reject the move. Reaching the goal
// coordinate clears the level, freezes the timer and makes all further input
// a no-op.
//
// The engine is not safe for concurrent use. The session package serializes
// ticks and input for server-side play.
package engine
