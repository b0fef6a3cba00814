package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MindBloom CLI theme: a handful of styles and icons.

const (
	IconBloom   = "🌸"
	IconSparkle = "✨"
	IconCheck   = "✅"
	IconFire    = "🔥"
	IconChart   = "📊"
	IconNote    = "📝"
	IconChat    = "💬"
	IconLock    = "🔒"
	IconKey     = "🔑"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🥀"
)

var (
	cPrimary = lipgloss.Color("35")  // green
	cAccent  = lipgloss.Color("176") // pink
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

	Panel     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	UserLine  = lipgloss.NewStyle().Foreground(cPrimary)
	BloomLine = lipgloss.NewStyle().Foreground(cAccent)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// Bar renders a fixed-width progress bar for a fraction in [0,1].
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}

// Level colors a 1..10 score: high is good unless inverted (stress).
func Level(score int, inverted bool) string {
	v := score
	if inverted {
		v = 11 - score
	}
	s := fmt.Sprintf("%d/10", score)
	switch {
	case v >= 7:
		return Good.Render(s)
	case v >= 4:
		return Warn.Render(s)
	}
	return Bad.Render(s)
}
