package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette holds the named [lipgloss.Style]s used for CLI output.
type Palette struct {
	Title lipgloss.Style
	OK    lipgloss.Style
	Err   lipgloss.Style
	Warn  lipgloss.Style
	Hint  lipgloss.Style
}

// NewPalette builds a palette from foreground colors for titles, success, errors, warnings and hints.
func NewPalette(title, ok, err, warn, hint string) Palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }

	return Palette{
		Title: fg(title).Bold(true).MarginBottom(1),
		OK:    fg(ok).Bold(true),
		Err:   fg(err).Bold(true),
		Warn:  fg(warn),
		Hint:  fg(hint).Italic(true),
	}
}

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Title renders a section heading.
func Title(s string) string { return styles.Title.Render(s) }

// OK renders a success line.
func OK(s string) string { return styles.OK.Render("✓ " + s) }

// Warn renders a warning line.
func Warn(s string) string { return styles.Warn.Render("! " + s) }

// Err renders a failure line.
func Err(s string) string { return styles.Err.Render("✗ " + s) }

// Hint renders secondary help text.
func Hint(s string) string { return styles.Hint.Render(s) }
