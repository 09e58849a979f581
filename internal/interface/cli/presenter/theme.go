// Package presenter renders read models for the terminal.
package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconSparkle = "✨"
	IconDone    = "✅"
	IconTask    = "📝"
	IconBook    = "📚"
	IconCoin    = "🪙"
	IconTrophy  = "🏆"
	IconClock   = "⏱️"
	IconShop    = "🛒"
	IconDice    = "🎲"
	IconChart   = "📊"
	IconCal     = "📅"
	IconWarn    = "⚠️"
	IconError   = "🧨"
)

var (
	cPrimary = lipgloss.Color("63")
	cAccent  = lipgloss.Color("205")
	cGood    = lipgloss.Color("42")
	cWarn    = lipgloss.Color("214")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
	cGold    = lipgloss.Color("220")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel    = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	Selected = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
	Today    = lipgloss.NewStyle().Bold(true).Underline(true)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

// Heading renders a section title.
func Heading(icon, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

// LabelValue renders "label: value".
func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Accent returns a style in the user's accent color, falling back to the
// theme accent when hex is empty.
func Accent(hex string) lipgloss.Style {
	if hex == "" {
		return Title
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex))
}

// Bar draws a fixed-width progress bar for fraction in [0, 1].
func Bar(fraction float64, width int) string {
	if width <= 0 {
		width = 20
	}
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}

// Minutes formats a duration in minutes as "1h 05m" or "45m".
func Minutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

// Error renders an error line for stderr.
func Error(err error) string {
	return Bad.Render(IconError + " " + err.Error())
}
