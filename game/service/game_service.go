package service

import (
	"context"
	"errors"

	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/session"
)

var ErrForbidden = errors.New("session belongs to another player")

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*level.Info, error)
	LoadLevel(ctx context.Context, levelID int) (*level.Level, error)
	SaveLevel(ctx context.Context, lvl *level.Level) error

	// Results
	RecordResult(ctx context.Context, player session.Player, levelID, seconds int) (*results.Result, error)
	Results(ctx context.Context, levelID int) ([]results.Result, error)
	Rankings(ctx context.Context, levelID, limit int) ([]results.Entry, error)
	UserResults(ctx context.Context, userID string) ([]results.Result, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, lvl *level.Level, player session.Player) (*session.Session, error)
	Get(id string) (*session.Session, error)
	List() []*session.Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id int) (*level.Level, error)
	ListLevels() ([]*level.Info, error)
	SaveLevel(lvl *level.Level) error
}
