// Package tui is the terminal client: login, level select, play, clear and
// profile screens driven by one bubbletea program. The game runs locally;
// levels come from the server and clear times are posted back to it.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
)

// Backend is what the screens need from the API
type Backend interface {
	level.Supplier
	session.ResultSink

	Register(ctx context.Context, username, password string) (*identity.User, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	Profile(ctx context.Context) (*identity.Profile, error)
	UpdateProfile(ctx context.Context, update identity.ProfileUpdate) (*identity.User, error)
	Rankings(ctx context.Context, levelID, limit int) ([]results.Entry, error)
}

type Screen int

const (
	LoginScreen Screen = iota
	SelectScreen
	GameScreen
	ClearScreen
	ProfileScreen
)

// requestTimeout bounds every backend call made by a command
const requestTimeout = 10 * time.Second

// Messages produced by commands
type (
	loggedInMsg  struct{ err error }
	loggedOutMsg struct{}
	profileMsg   struct {
		profile *identity.Profile
		err     error
	}
	levelMsg struct {
		level *level.Level
		err   error
	}
	// tickMsg carries the generation of the game it was scheduled for
	tickMsg struct{ gen int }
	// reportedMsg arrives after the clear time was posted and the ranking
	// fetched
	reportedMsg struct {
		reportErr error
		ranking   []results.Entry
		rankErr   error
	}
	profileSavedMsg struct {
		user *identity.User
		err  error
	}
)

// Model is the root bubbletea model
type Model struct {
	backend Backend
	screen  Screen
	width   int
	height  int

	// tickInterval drives the game clock
	tickInterval time.Duration

	profile    *identity.Profile
	difficulty level.Difficulty

	login   loginState
	game    gameState
	clear   clearState
	editing profileState

	// status is a one-line message shown under the current screen
	status string
}

// New returns the root model starting on the login screen, or on the select
// screen when the backend already holds a token.
func New(backend Backend) Model {
	m := Model{
		backend:      backend,
		screen:       LoginScreen,
		tickInterval: session.TickInterval,
		difficulty:   level.Easy,
		login:        newLoginState(),
		editing:      newProfileState(),
	}
	if backend.LoggedIn() {
		m.screen = SelectScreen
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == SelectScreen {
		return m.fetchProfile()
	}
	return m.login.init()
}

// Screen reports the active screen
func (m Model) Screen() Screen {
	return m.screen
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		m.game.stop()
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loggedInMsg:
		m.login.busy = false
		if msg.err != nil {
			m.status = "Login failed: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		m.screen = SelectScreen
		return m, m.fetchProfile()

	case loggedOutMsg:
		m.profile = nil
		m.screen = LoginScreen
		m.login = newLoginState()
		m.status = ""
		return m, m.login.init()

	case profileMsg:
		if msg.err != nil {
			m.status = "Failed to load profile: " + msg.err.Error()
			return m, nil
		}
		m.profile = msg.profile
		return m, nil

	case levelMsg:
		return m.startGame(msg)

	case tickMsg:
		return m.handleTick(msg)

	case reportedMsg:
		return m.handleReported(msg)

	case profileSavedMsg:
		return m.handleProfileSaved(msg)
	}

	switch m.screen {
	case LoginScreen:
		return m.updateLogin(msg)
	case SelectScreen:
		return m.updateSelect(msg)
	case GameScreen:
		return m.updateGame(msg)
	case ClearScreen:
		return m.updateClear(msg)
	case ProfileScreen:
		return m.updateProfile(msg)
	}
	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case LoginScreen:
		body = m.viewLogin()
	case SelectScreen:
		body = m.viewSelect()
	case GameScreen:
		body = m.viewGame()
	case ClearScreen:
		body = m.viewClear()
	case ProfileScreen:
		body = m.viewProfile()
	}
	if m.status != "" {
		body += "\n" + statusStyle.Render(m.status)
	}
	return body
}

// Commands

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func (m Model) fetchProfile() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		profile, err := backend.Profile(ctx)
		return profileMsg{profile: profile, err: err}
	}
}

func (m Model) fetchLevel(difficulty level.Difficulty) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		lvl, err := backend.Supply(ctx, difficulty)
		return levelMsg{level: lvl, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		// the local token is gone either way
		backend.Logout(ctx)
		return loggedOutMsg{}
	}
}
