package engine

// classify decides what a move in direction would do without mutating anything
func (e *GameEngine) classify(direction Direction) MoveResult {
	result := MoveResult{
		Direction: direction,
		Kind:      Rejected,
		From:      e.player,
		To:        e.player,
	}

	if e.status == Cleared {
		result.Kind = Ignored
		result.Reason = "cleared"
		return result
	}

	target := e.player.Add(direction)
	if !e.grid.InBounds(target) {
		result.Reason = "boundary"
		return result
	}

	switch e.grid.At(target) {
	case Empty, Goal:
		result.Kind = PlainMove
		result.To = target

	case Block:
		beyond := target.Add(direction)
		if !e.grid.InBounds(beyond) {
			result.Reason = "block_at_boundary"
			return result
		}
		if e.grid.At(beyond) != Empty {
			result.Reason = "block_blocked"
			return result
		}
		result.Kind = PushMove
		result.To = target
		result.BlockTo = &beyond

	case Wall:
		result.Reason = "wall"

	default:
		result.Reason = e.grid.At(target).String()
	}

	return result
}

// AttemptMove applies the directional input. Illegal input is rejected
// silently with the state left untouched; input after the level is cleared
// is ignored.
func (e *GameEngine) AttemptMove(direction Direction) MoveResult {
	result := e.classify(direction)
	if !result.Accepted() {
		return result
	}

	if e.grid.InBounds(result.From) {
		e.grid.set(result.From, Empty)
	}
	e.grid.set(result.To, Player)
	if result.Kind == PushMove {
		e.grid.set(*result.BlockTo, Block)
		e.pushes++
	}
	e.player = result.To
	e.moves++

	// The goal cell now holds Player, so compare against the captured coordinate
	if e.hasGoal && e.player == e.goal {
		result.Reached = true
		e.status = Cleared
	}

	e.lastMove = &result
	e.addMoveToHistory(result)

	return result
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction Direction) bool {
	return e.classify(direction).Accepted()
}

// PossibleMoves returns all valid directions the player can move
func (e *GameEngine) PossibleMoves() []Direction {
	var possible []Direction
	for _, d := range Directions {
		if e.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

func (e *GameEngine) addMoveToHistory(result MoveResult) {
	e.history = append(e.history, MoveHistoryEntry{
		Direction:  result.Direction,
		Kind:       result.Kind,
		From:       result.From,
		To:         result.To,
		Elapsed:    e.elapsed,
		Timestamp:  e.now().Unix(),
		MoveNumber: len(e.history) + 1,
	})
}
