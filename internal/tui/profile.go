package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/blockpush/client"
	"github.com/wricardo/blockpush/identity"
)

type profileState struct {
	inputs []textinput.Model
	focus  int
	busy   bool
}

func newProfileState() profileState {
	username := textinput.New()
	username.Prompt = "username > "
	username.CharLimit = 20

	nickname := textinput.New()
	nickname.Prompt = "nickname > "
	nickname.CharLimit = 30

	p := profileState{inputs: []textinput.Model{username, nickname}}
	p.focus = focusInputs(p.inputs, 0)
	return p
}

func (p *profileState) fill(username, nickname string) {
	p.inputs[0].SetValue(username)
	p.inputs[1].SetValue(nickname)
}

func (p profileState) init() tea.Cmd {
	return textinput.Blink
}

func (m Model) updateProfile(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.status = ""
			m.screen = SelectScreen
			return m, nil
		case "tab", "down":
			m.editing.focus = focusInputs(m.editing.inputs, m.editing.focus+1)
			return m, nil
		case "shift+tab", "up":
			m.editing.focus = focusInputs(m.editing.inputs, m.editing.focus-1)
			return m, nil
		case "enter":
			return m.saveProfile()
		}
	}

	var cmd tea.Cmd
	m.editing.inputs[m.editing.focus], cmd = m.editing.inputs[m.editing.focus].Update(msg)
	return m, cmd
}

func (m Model) saveProfile() (tea.Model, tea.Cmd) {
	if m.editing.busy {
		return m, nil
	}
	update := identity.ProfileUpdate{
		Username: strings.TrimSpace(m.editing.inputs[0].Value()),
		Nickname: strings.TrimSpace(m.editing.inputs[1].Value()),
	}
	if err := identity.ValidateUsername(update.Username); err != nil {
		m.status = err.Error()
		return m, nil
	}
	if err := identity.ValidateNickname(update.Nickname); err != nil {
		m.status = err.Error()
		return m, nil
	}

	m.editing.busy = true
	m.status = "Saving..."
	backend := m.backend
	return m, func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		user, err := backend.UpdateProfile(ctx, update)
		return profileSavedMsg{user: user, err: err}
	}
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (tea.Model, tea.Cmd) {
	m.editing.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, client.ErrConflict) {
			m.status = "That username is already taken"
		} else {
			log.WithError(msg.err).Error("[AUTH] profile update failed")
			m.status = "Failed to save profile: " + msg.err.Error()
		}
		return m, nil
	}
	m.status = "Profile saved"
	m.screen = SelectScreen
	return m, m.fetchProfile()
}

func (m Model) viewProfile() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PROFILE") + "\n\n")
	b.WriteString(m.editing.inputs[0].View() + "\n")
	b.WriteString(m.editing.inputs[1].View() + "\n\n")
	b.WriteString(helpStyle.Render("enter: save • tab: next field • esc: back"))
	return panelStyle.Render(b.String())
}
