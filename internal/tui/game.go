package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/session"
)

// gameState is one play of a level. The bubbletea update loop is its only
// executor, so ticks and input never interleave.
type gameState struct {
	engine *engine.GameEngine
	level  *level.Level
	// gen identifies the play; ticks scheduled for an older play are dropped
	gen      int
	running  bool
	reported bool
	lastMove *engine.MoveResult
}

func (g *gameState) stop() {
	g.running = false
}

func (m Model) scheduleTick() tea.Cmd {
	gen := m.game.gen
	return tea.Tick(m.tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) startGame(msg levelMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = "Failed to load level: " + msg.err.Error()
		return m, nil
	}

	eng, err := engine.NewEngine(msg.level.Objects)
	if err != nil {
		m.status = "Broken level: " + err.Error()
		return m, nil
	}
	if !eng.PlayerFound() {
		log.WithField("level_id", msg.level.ID).Warn("[LEVEL] level has no player cell, starting at (0,0)")
	}
	if _, ok := eng.GoalPosition(); !ok {
		log.WithField("level_id", msg.level.ID).Warn("[LEVEL] level has no goal, it cannot be cleared")
	}

	m.game = gameState{
		engine:  eng,
		level:   msg.level,
		gen:     m.game.gen + 1,
		running: true,
	}
	m.screen = GameScreen
	m.status = ""

	log.WithFields(log.Fields{"level_id": msg.level.ID, "gen": m.game.gen}).Info("[SESSION] game started")
	return m, m.scheduleTick()
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.game.gen || !m.game.running || m.game.engine == nil {
		return m, nil
	}
	m.game.engine.Tick()
	return m, m.scheduleTick()
}

func keyDirection(key string) (engine.Direction, bool) {
	switch key {
	case "up", "w", "k":
		return engine.Up, true
	case "down", "s", "j":
		return engine.Down, true
	case "left", "a", "h":
		return engine.Left, true
	case "right", "d", "l":
		return engine.Right, true
	}
	return 0, false
}

func (m Model) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.game.engine == nil {
		return m, nil
	}

	switch key.String() {
	case "esc", "q":
		m.game.stop()
		m.game.gen++
		m.screen = SelectScreen
		return m, nil
	case "r":
		m.game.stop()
		return m, m.fetchLevel(level.DifficultyForLevel(m.game.level.ID))
	}

	dir, ok := keyDirection(key.String())
	if !ok || !m.game.running {
		return m, nil
	}

	result := m.game.engine.AttemptMove(dir)
	m.game.lastMove = &result
	if !result.Reached {
		return m, nil
	}

	// cleared: the clock is frozen, outstanding ticks become stale
	m.game.stop()
	m.game.gen++
	if m.game.reported {
		return m, nil
	}
	m.game.reported = true
	m.status = "Cleared! Saving your time..."
	return m, m.report()
}

// report posts the clear time, then loads the ranking shown on the clear
// screen
func (m Model) report() tea.Cmd {
	backend := m.backend
	state := m.game.engine.Snapshot()
	outcome := session.Outcome{
		LevelID: m.game.level.ID,
		Elapsed: state.Elapsed,
		Moves:   state.Moves,
		Pushes:  state.Pushes,
	}
	if m.profile != nil {
		outcome.UserID = m.profile.ID
		outcome.Username = m.profile.Username
	}

	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()

		var msg reportedMsg
		if err := backend.Report(ctx, outcome); err != nil {
			log.WithError(err).WithField("level_id", outcome.LevelID).Error("[CLEAR] failed to report result")
			msg.reportErr = err
		}
		msg.ranking, msg.rankErr = backend.Rankings(ctx, outcome.LevelID, results.DefaultRankingSize)
		return msg
	}
}

func (m Model) viewGame() string {
	if m.game.engine == nil {
		return "Loading..."
	}
	state := m.game.engine.Snapshot()

	header := fmt.Sprintf("Level %d (%s)   ⏱ %s   moves %d   pushes %d",
		m.game.level.ID, level.DifficultyForLevel(m.game.level.ID),
		state.ElapsedDisplay, state.Moves, state.Pushes)

	footer := "arrows/WASD: move • r: restart • esc: back"
	if m.game.lastMove != nil && m.game.lastMove.Kind == engine.Rejected {
		footer = fmt.Sprintf("can't move %s (%s) • ", m.game.lastMove.Direction, m.game.lastMove.Reason) + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(header),
		boardStyle.Render(renderBoard(state.Grid)),
		helpStyle.Render(footer),
	)
}

func renderBoard(grid [][]int) string {
	rows := make([]string, len(grid))
	for y, row := range grid {
		var b strings.Builder
		for _, code := range row {
			switch engine.Cell(code) {
			case engine.Wall:
				b.WriteString(wallGlyph)
			case engine.Player:
				b.WriteString(playerGlyph)
			case engine.Block:
				b.WriteString(blockGlyph)
			case engine.Goal:
				b.WriteString(goalGlyph)
			default:
				b.WriteString(emptyGlyph)
			}
		}
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}
