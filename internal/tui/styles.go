package tui

import "github.com/charmbracelet/lipgloss"

var (
	focusedColor = lipgloss.Color("205")
	blurredColor = lipgloss.Color("240")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Padding(0, 1)
	focusedStyle = lipgloss.NewStyle().Foreground(focusedColor)
	blurredStyle = lipgloss.NewStyle().Foreground(blurredColor)
	helpStyle    = blurredStyle
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(1, 2)

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(blurredColor)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Padding(0, 2)

	optionStyle = lipgloss.NewStyle().Padding(0, 2)

	highlightRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	// cell glyphs, two columns wide so the board looks square
	wallGlyph   = lipgloss.NewStyle().Foreground(lipgloss.Color("172")).Render("██")
	playerGlyph = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Render("◉ ")
	blockGlyph  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("▣ ")
	goalGlyph   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render("⚑ ")
	emptyGlyph  = "  "
)
