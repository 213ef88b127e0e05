package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginState struct {
	inputs []textinput.Model
	focus  int
	busy   bool
}

func newLoginState() loginState {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 20
	username.Focus()
	username.PromptStyle = focusedStyle
	username.TextStyle = focusedStyle

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginState{inputs: []textinput.Model{username, password}}
}

func (l loginState) init() tea.Cmd {
	return textinput.Blink
}

func (l *loginState) setFocus(i int) {
	l.focus = focusInputs(l.inputs, i)
}

// focusInputs focuses input i (wrapping) and blurs the others
func focusInputs(inputs []textinput.Model, i int) int {
	focus := (i + len(inputs)) % len(inputs)
	for j := range inputs {
		if j == focus {
			inputs[j].Focus()
			inputs[j].PromptStyle = focusedStyle
			inputs[j].TextStyle = focusedStyle
		} else {
			inputs[j].Blur()
			inputs[j].PromptStyle = lipgloss.NewStyle()
			inputs[j].TextStyle = lipgloss.NewStyle()
		}
	}
	return focus
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, tea.Quit
		case "tab", "down":
			m.login.setFocus(m.login.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.login.setFocus(m.login.focus - 1)
			return m, nil
		case "enter":
			if m.login.focus == 0 {
				m.login.setFocus(1)
				return m, nil
			}
			return m.submitLogin(false)
		case "ctrl+n":
			return m.submitLogin(true)
		}
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
	return m, cmd
}

// submitLogin logs in, registering first when register is set
func (m Model) submitLogin(register bool) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	username := strings.TrimSpace(m.login.inputs[0].Value())
	password := m.login.inputs[1].Value()
	if username == "" || password == "" {
		m.status = "Enter a username and a password"
		return m, nil
	}

	m.login.busy = true
	m.status = ""
	backend := m.backend
	return m, func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if register {
			if _, err := backend.Register(ctx, username, password); err != nil {
				return loggedInMsg{err: fmt.Errorf("registration failed: %w", err)}
			}
		}
		return loggedInMsg{err: backend.Login(ctx, username, password)}
	}
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("BLOCKPUSH") + "\n\n")
	b.WriteString(m.login.inputs[0].View() + "\n")
	b.WriteString(m.login.inputs[1].View() + "\n\n")
	if m.login.busy {
		b.WriteString("Signing in...\n")
	}
	b.WriteString(helpStyle.Render("enter: log in • ctrl+n: register and log in • tab: next field • esc: quit"))
	return panelStyle.Render(b.String())
}
