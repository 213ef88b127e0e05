package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
)

var ErrSessionClosed = errors.New("session closed")

const (
	// TickInterval is the period of the elapsed-time source
	TickInterval = time.Second

	// DefaultSinkTimeout bounds a single result report
	DefaultSinkTimeout = 5 * time.Second
)

// Outcome is handed to the result sink when a level is cleared
type Outcome struct {
	SessionID string `json:"session_id"`
	LevelID   int    `json:"level"`
	Elapsed   int    `json:"time"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Moves     int    `json:"moves"`
	Pushes    int    `json:"pushes"`
}

// ResultSink receives cleared-level outcomes. Report is called once per
// cleared session; a returned error is logged and never retried.
type ResultSink interface {
	Report(ctx context.Context, outcome Outcome) error
}

// SinkFunc adapts a function to ResultSink
type SinkFunc func(ctx context.Context, outcome Outcome) error

func (f SinkFunc) Report(ctx context.Context, outcome Outcome) error {
	return f(ctx, outcome)
}

// EventType names a session notification
type EventType string

const (
	EventState   EventType = "state"
	EventTick    EventType = "tick"
	EventCleared EventType = "cleared"
)

// Event is pushed to the notifier after every state change
type Event struct {
	Type  EventType          `json:"type"`
	State *engine.GameState  `json:"state"`
	Move  *engine.MoveResult `json:"move,omitempty"`
}

// Notifier is told about state changes. Notify is called with the session
// lock held, so it must not call back into the session.
type Notifier interface {
	Notify(sessionID string, event Event)
}

// Player identifies who is playing a session
type Player struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Options configure sessions created by a Manager
type Options struct {
	TickInterval time.Duration
	SinkTimeout  time.Duration
	Sink         ResultSink
	Notifier     Notifier
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = TickInterval
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = DefaultSinkTimeout
	}
	return o
}

// Session drives one engine: ticks, input and teardown are serialized on mu
type Session struct {
	ID         string
	LevelID    int
	Difficulty level.Difficulty
	Player     Player
	CreatedAt  time.Time

	engine         *engine.GameEngine
	opts           Options
	lastAccessedAt time.Time
	reported       bool
	started        bool
	closed         bool
	stop           chan struct{}
	done           chan struct{}
	mu             sync.Mutex
}

// New builds a session for lvl. The tick source does not run until Start.
func New(id string, lvl *level.Level, player Player, opts Options) (*Session, error) {
	if lvl == nil {
		return nil, fmt.Errorf("%w: nil level", level.ErrInvalidLevel)
	}

	eng, err := engine.NewEngine(lvl.Objects)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if !eng.PlayerFound() {
		log.WithFields(log.Fields{"session": id, "level_id": lvl.ID}).
			Warn("[SESSION] level has no player cell, starting at (0,0)")
	}

	now := time.Now()
	return &Session{
		ID:             id,
		LevelID:        lvl.ID,
		Difficulty:     level.DifficultyForLevel(lvl.ID),
		Player:         player,
		CreatedAt:      now,
		lastAccessedAt: now,
		engine:         eng,
		opts:           opts.withDefaults(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Start launches the tick source. It is a no-op once started, closed or cleared.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.closed || s.engine.Cleared() {
		return
	}
	s.started = true
	go s.run()
}

func (s *Session) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick advances the clock by one second. It returns false when the tick
// source should stop.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.engine.Tick() {
		return false
	}
	s.notify(Event{Type: EventTick, State: s.engine.Snapshot()})
	return true
}

// Move resolves one directional input completely, including the win check
// and the result report, before the next input or tick is processed.
func (s *Session) Move(ctx context.Context, dir engine.Direction) (engine.MoveResult, *engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return engine.MoveResult{}, nil, ErrSessionClosed
	}
	s.lastAccessedAt = time.Now()

	result := s.engine.AttemptMove(dir)
	state := s.engine.Snapshot()

	if result.Accepted() {
		log.WithFields(log.Fields{
			"session": s.ID,
			"dir":     dir.String(),
			"kind":    string(result.Kind),
			"to":      result.To.String(),
		}).Debug("[MOVE]")
	}

	if result.Reached {
		s.finish(ctx, state)
		s.notify(Event{Type: EventCleared, State: state, Move: &result})
	} else if result.Accepted() {
		s.notify(Event{Type: EventState, State: state, Move: &result})
	}

	return result, state, nil
}

// finish stops the tick source and reports the outcome exactly once
func (s *Session) finish(ctx context.Context, state *engine.GameState) {
	if s.reported {
		return
	}
	s.reported = true
	s.halt()

	log.WithFields(log.Fields{
		"session":  s.ID,
		"level_id": s.LevelID,
		"time":     state.Elapsed,
		"moves":    state.Moves,
	}).Info("[CLEAR] level cleared")

	if s.opts.Sink == nil {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	// the report outlives a cancelled request context
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SinkTimeout)
	defer cancel()

	outcome := Outcome{
		SessionID: s.ID,
		LevelID:   s.LevelID,
		Elapsed:   state.Elapsed,
		UserID:    s.Player.UserID,
		Username:  s.Player.Username,
		Moves:     state.Moves,
		Pushes:    state.Pushes,
	}
	if err := s.opts.Sink.Report(reportCtx, outcome); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"session":  s.ID,
			"level_id": s.LevelID,
		}).Error("[CLEAR] failed to report result")
	}
}

// halt closes the stop channel once; callers hold mu
func (s *Session) halt() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *Session) notify(event Event) {
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(s.ID, event)
	}
}

// Close stops the tick source and rejects further input. It is idempotent
// and waits for the tick goroutine to exit.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.halt()
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// State returns a snapshot of the engine
func (s *Session) State() *engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// MoveHistory returns the accepted moves so far
func (s *Session) MoveHistory() []engine.MoveHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.MoveHistory()
}

// Cleared reports whether the level has been cleared
func (s *Session) Cleared() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Cleared()
}

// Touch records an access for expiry purposes
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the last access
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}

// record captures the session for persistence
func (s *Session) record() *PersistedSessionData {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.Snapshot()
	return &PersistedSessionData{
		ID:             s.ID,
		LevelID:        s.LevelID,
		Player:         s.Player,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.lastAccessedAt,
		Grid:           state.Grid,
		Goal:           state.GoalPos,
		Elapsed:        state.Elapsed,
		Moves:          state.Moves,
		Pushes:         state.Pushes,
		Cleared:        state.Status == engine.Cleared,
	}
}

// restore rebuilds a session from persisted data
func restore(data *PersistedSessionData, opts Options) (*Session, error) {
	grid, err := engine.DecodeGrid(data.Grid)
	if err != nil {
		return nil, fmt.Errorf("failed to decode saved grid: %w", err)
	}

	eng := &engine.GameEngine{}
	eng.Resume(grid, data.Goal, data.Elapsed, data.Moves, data.Pushes)

	return &Session{
		ID:             data.ID,
		LevelID:        data.LevelID,
		Difficulty:     level.DifficultyForLevel(data.LevelID),
		Player:         data.Player,
		CreatedAt:      data.CreatedAt,
		lastAccessedAt: data.LastAccessedAt,
		engine:         eng,
		opts:           opts.withDefaults(),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}
