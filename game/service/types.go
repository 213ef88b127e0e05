package service

import (
	"time"

	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/session"
)

// MaxBulkMoves caps the directions accepted by one BulkMove call
const MaxBulkMoves = 100

// CreateSessionRequest selects the level for a new session. LevelID wins
// over Difficulty when both are set.
type CreateSessionRequest struct {
	Difficulty string         `json:"difficulty,omitempty"`
	LevelID    int            `json:"level,omitempty"`
	Player     session.Player `json:"-"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	Level          int               `json:"level"`
	Difficulty     string            `json:"difficulty"`
	Player         session.Player    `json:"player"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool              `json:"success"`
	Move      engine.MoveResult `json:"move"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Cleared   bool              `json:"cleared"`
}

// BulkMoveResult contains the result of a sequence of moves
type BulkMoveResult struct {
	RequestedMoves int                 `json:"requested_moves"`
	MovesExecuted  int                 `json:"moves_executed"`
	Success        bool                `json:"success"`
	Steps          []engine.MoveResult `json:"steps"`
	StoppedOnMove  int                 `json:"stopped_on_move,omitempty"`
	StopReasonCode string              `json:"stop_reason_code,omitempty"`
	Truncated      bool                `json:"truncated,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	StartPos       engine.Position     `json:"start_pos"`
	EndPos         engine.Position     `json:"end_pos"`
	Cleared        bool                `json:"cleared"`
	GameState      *engine.GameState   `json:"game_state"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}
