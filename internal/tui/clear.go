package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wricardo/blockpush/game/engine"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
)

type clearState struct {
	levelID   int
	elapsed   int
	ranking   []results.Entry
	reportErr error
	rankErr   error
}

func (m Model) handleReported(msg reportedMsg) (tea.Model, tea.Cmd) {
	if m.game.engine == nil || m.game.level == nil {
		return m, nil
	}
	m.clear = clearState{
		levelID:   m.game.level.ID,
		elapsed:   m.game.engine.Elapsed(),
		ranking:   msg.ranking,
		reportErr: msg.reportErr,
		rankErr:   msg.rankErr,
	}
	m.screen = ClearScreen
	m.status = ""
	if msg.reportErr != nil {
		m.status = "Your time could not be saved: " + msg.reportErr.Error()
	}
	// total play time changed
	return m, m.fetchProfile()
}

func (m Model) updateClear(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "r":
		m.status = "Loading level..."
		return m, m.fetchLevel(level.DifficultyForLevel(m.clear.levelID))
	case "enter", "esc":
		m.status = ""
		m.screen = SelectScreen
		return m, m.fetchProfile()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewClear() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CLEAR!") + "\n\n")
	b.WriteString(fmt.Sprintf("Level %d cleared in %s\n\n", m.clear.levelID, engine.FormatElapsed(m.clear.elapsed)))

	b.WriteString("Top times\n")
	switch {
	case m.clear.rankErr != nil:
		b.WriteString("  ranking unavailable\n")
	case len(m.clear.ranking) == 0:
		b.WriteString("  no times yet\n")
	default:
		for _, entry := range m.clear.ranking {
			row := fmt.Sprintf("  %d. %-20s %s", entry.Rank, entry.Username, engine.FormatElapsed(entry.Time))
			if m.isMine(entry) {
				row = highlightRowStyle.Render(row)
			}
			b.WriteString(row + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("r: play again • enter: level select • q: quit"))
	return panelStyle.Render(b.String())
}

func (m Model) isMine(entry results.Entry) bool {
	if m.profile == nil {
		return false
	}
	if entry.UserID != "" {
		return entry.UserID == m.profile.ID
	}
	return entry.Username == m.profile.Username
}
