// Package tui implements the Bubble Tea board for one project's schedule.
package tui

import "github.com/charmbracelet/lipgloss"

// Icons and symbols.
const (
	iconDot        = "•"
	iconCritical   = "◆"
	iconMilestone  = "◇"
	iconPending    = "⟳"
	iconConfirmed  = "✓"
	iconRolledBack = "↺"
	iconWarning    = "⚠"
	iconError      = "✗"
	iconInfo       = "ℹ"
	barFull        = "█"
	barGap         = "·"
	barEmpty       = " "
)

var (
	colorMuted    = lipgloss.Color("245")
	colorAccent   = lipgloss.Color("63")
	colorCritical = lipgloss.Color("203")
	colorCO       = lipgloss.Color("214")
	colorDone     = lipgloss.Color("42")
	colorWarn     = lipgloss.Color("220")
	colorError    = lipgloss.Color("196")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	criticalStyle = lipgloss.NewStyle().Foreground(colorCritical)
	coStyle       = lipgloss.NewStyle().Foreground(colorCO)
	doneStyle     = lipgloss.NewStyle().Foreground(colorDone)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)

	toastBase         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	toastInfoStyle    = toastBase.BorderForeground(colorDone)
	toastWarningStyle = toastBase.BorderForeground(colorWarn)
	toastErrorStyle   = toastBase.BorderForeground(colorError)
)
