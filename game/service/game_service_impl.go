package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/session"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	results  results.Store
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, store results.Store) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		results:  store,
	}
}

// CreateSession picks the level, owner defaults to the caller in ctx
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	levelID := req.LevelID
	if levelID == 0 {
		levelID = level.ParseDifficulty(req.Difficulty).LevelID()
	}

	lvl, err := s.levels.LoadLevel(levelID)
	if err != nil {
		if errors.Is(err, level.ErrLevelNotFound) {
			available, listErr := s.levels.ListLevels()
			if listErr == nil && len(available) > 0 {
				ids := make([]int, 0, len(available))
				for _, info := range available {
					ids = append(ids, info.ID)
				}
				return nil, fmt.Errorf("%w: level %d (available: %v)", level.ErrLevelNotFound, levelID, ids)
			}
		}
		return nil, fmt.Errorf("failed to load level %d: %w", levelID, err)
	}

	player := req.Player
	if caller, ok := PlayerFromContext(ctx); ok && player.UserID == "" {
		player = caller
	}

	sess, err := s.sessions.Create("", lvl, player)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns the sessions visible to the caller
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	list := s.sessions.List()
	result := make([]*SessionInfo, 0, len(list))
	for _, sess := range list {
		if !canAccess(ctx, sess) {
			continue
		}
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession closes and removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.session(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(sessionID)
}

// Move applies one directional input
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	move, state, err := sess.Move(ctx, dir)
	if err != nil {
		return nil, err
	}
	s.persist(sessionID)

	return &MoveResult{
		Success:   move.Accepted(),
		Move:      move,
		GameState: state,
		Message:   moveMessage(move, state),
		Cleared:   state.Status == engine.Cleared,
	}, nil
}

// BulkMove applies moves in order, stopping at the first rejection or when
// the level is cleared
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	dirs := make([]engine.Direction, 0, len(moves))
	for _, m := range moves {
		dir, err := engine.ParseDirection(m)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	start := sess.State()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Success:        true,
		Steps:          []engine.MoveResult{},
		StartPos:       start.PlayerPos,
		GameState:      start,
		Cleared:        start.Status == engine.Cleared,
	}

	if len(dirs) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		dirs = dirs[:MaxBulkMoves]
	}

	for i, dir := range dirs {
		move, state, err := sess.Move(ctx, dir)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, move)
		result.GameState = state

		if !move.Accepted() {
			result.Success = false
			result.StoppedOnMove = i + 1
			result.StopReasonCode = move.Reason
			if move.Kind == engine.Ignored {
				result.StopReasonCode = "cleared"
			}
			break
		}
		result.MovesExecuted++

		if move.Reached {
			result.Cleared = true
			if i+1 < len(dirs) {
				result.StoppedOnMove = i + 1
				result.StopReasonCode = "cleared"
			}
			break
		}
	}

	result.EndPos = result.GameState.PlayerPos
	s.persist(sessionID)
	return result, nil
}

// Reset replaces the session with a fresh one on the same level, same id
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*SessionInfo, error) {
	old, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lvl, err := s.levels.LoadLevel(old.LevelID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload level %d: %w", old.LevelID, err)
	}
	if err := s.sessions.Delete(old.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return nil, err
	}
	sess, err := s.sessions.Create(old.ID, lvl, old.Player)
	if err != nil {
		return nil, fmt.Errorf("failed to recreate session: %w", err)
	}

	log.WithField("session", sess.ID).Info("[SESSION] reset")
	return sessionInfo(sess), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.State(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return paginate(sess.MoveHistory(), opts), nil
}

func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*level.Info, error) {
	return s.levels.ListLevels()
}

func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID int) (*level.Level, error) {
	return s.levels.LoadLevel(levelID)
}

func (s *gameServiceImpl) SaveLevel(ctx context.Context, lvl *level.Level) error {
	return s.levels.SaveLevel(lvl)
}

// RecordResult stores a result reported by a client-side game
func (s *gameServiceImpl) RecordResult(ctx context.Context, player session.Player, levelID, seconds int) (*results.Result, error) {
	r := &results.Result{
		UserID:   player.UserID,
		Username: player.Username,
		Level:    levelID,
		Time:     seconds,
	}
	if err := s.results.Record(ctx, r); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user":     player.Username,
		"level_id": levelID,
		"time":     seconds,
	}).Info("[RESULT] recorded")
	return r, nil
}

func (s *gameServiceImpl) Results(ctx context.Context, levelID int) ([]results.Result, error) {
	return s.results.ByLevel(ctx, levelID)
}

func (s *gameServiceImpl) Rankings(ctx context.Context, levelID, limit int) ([]results.Entry, error) {
	list, err := s.results.ByLevel(ctx, levelID)
	if err != nil {
		return nil, err
	}
	return results.Rank(list, limit), nil
}

func (s *gameServiceImpl) UserResults(ctx context.Context, userID string) ([]results.Result, error) {
	return s.results.ByUser(ctx, userID)
}

// session looks up a session, refreshes its access time and checks the
// caller owns it
func (s *gameServiceImpl) session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !canAccess(ctx, sess) {
		return nil, ErrForbidden
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// canAccess reports whether the caller may use sess. Anonymous sessions are
// open to everyone; owned sessions only to their owner.
func canAccess(ctx context.Context, sess *session.Session) bool {
	if sess.Player.UserID == "" {
		return true
	}
	caller, ok := PlayerFromContext(ctx)
	return ok && caller.UserID == sess.Player.UserID
}

func (s *gameServiceImpl) persist(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.WithError(err).WithField("session", sessionID).Warn("[SESSION] failed to persist session")
	}
}

func sessionInfo(sess *session.Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		Level:          sess.LevelID,
		Difficulty:     string(sess.Difficulty),
		Player:         sess.Player,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      sess.State(),
	}
}

func moveMessage(move engine.MoveResult, state *engine.GameState) string {
	switch {
	case move.Reached:
		return fmt.Sprintf("Goal reached in %s!", state.ElapsedDisplay)
	case move.Kind == engine.PushMove:
		return fmt.Sprintf("Pushed block %s to %s", move.Direction, move.BlockTo)
	case move.Kind == engine.PlainMove:
		return fmt.Sprintf("Moved %s to %s", move.Direction, move.To)
	case move.Kind == engine.Ignored:
		return "Level already cleared"
	default:
		return fmt.Sprintf("Can't move %s: %s", move.Direction, move.Reason)
	}
}

func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
