package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Field is one "label value" row of a Card.
type Field struct {
	Label string
	Value string
}

// Section is a titled block of lines below the fields of a Card.
type Section struct {
	Label string
	Lines []string
}

// Card is a bordered summary box: a title, aligned fields and sections.
type Card struct {
	Styles   Styles
	Title    string
	Fields   []Field
	Sections []Section
}

// Render renders the card.
func (c Card) Render() string {
	var lines []string
	lines = append(lines, c.Styles.Title.Render(c.Title))

	width := 0
	for _, f := range c.Fields {
		width = max(width, lipgloss.Width(f.Label))
	}
	for _, f := range c.Fields {
		pad := strings.Repeat(" ", width-lipgloss.Width(f.Label))
		lines = append(lines, c.Styles.Label.Render(f.Label)+pad+"  "+f.Value)
	}
	for _, s := range c.Sections {
		lines = append(lines, "", c.Styles.Label.Render(s.Label))
		if len(s.Lines) == 0 {
			lines = append(lines, c.Styles.Help.Render("  (none)"))
		}
		for _, l := range s.Lines {
			lines = append(lines, "  "+l)
		}
	}
	return c.Styles.Border.Render(strings.Join(lines, "\n"))
}
