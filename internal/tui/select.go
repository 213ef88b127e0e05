package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wricardo/blockpush/game/level"
)

var difficulties = []level.Difficulty{level.Easy, level.Normal}

func (m Model) updateSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "left", "a", "h":
		m.difficulty = level.Easy
	case "right", "d", "l":
		m.difficulty = level.Normal
	case "enter", " ":
		m.status = "Loading level..."
		return m, m.fetchLevel(m.difficulty)
	case "p":
		m.status = ""
		m.screen = ProfileScreen
		m.editing = newProfileState()
		if m.profile != nil {
			m.editing.fill(m.profile.Username, m.profile.Nickname)
		}
		return m, m.editing.init()
	case "o":
		return m, m.logout()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) viewSelect() string {
	var b strings.Builder

	nickname, minutes := "...", 0
	if m.profile != nil {
		nickname = m.profile.Nickname
		minutes = m.profile.TotalPlayMinutes
	}

	b.WriteString(titleStyle.Render("BLOCKPUSH") + "\n\n")
	b.WriteString(fmt.Sprintf("Welcome, %s\n", nickname))
	b.WriteString(fmt.Sprintf("Total play time: %d min\n\n", minutes))

	options := make([]string, 0, len(difficulties))
	for _, d := range difficulties {
		label := strings.ToUpper(string(d))
		if d == m.difficulty {
			options = append(options, selectedStyle.Render(label))
		} else {
			options = append(options, optionStyle.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, options...) + "\n\n")
	b.WriteString(helpStyle.Render("←/→: difficulty • enter: start • p: profile • o: log out • q: quit"))
	return panelStyle.Render(b.String())
}
