package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/buildsched/internal/core/notify"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// renderToasts stacks the active toasts, oldest first, right-aligned to
// width.
func renderToasts(c *ToastController, width int) string {
	toasts := c.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}
	return lipgloss.PlaceHorizontal(max(width, toastWidth), lipgloss.Right, strings.Join(rendered, "\n"))
}

func renderToast(t toast) string {
	var icon string
	var style lipgloss.Style

	switch t.notification.Level {
	case notify.LevelError:
		icon = iconError
		style = toastErrorStyle
	case notify.LevelWarning:
		icon = iconWarning
		style = toastWarningStyle
	default:
		icon = iconInfo
		style = toastInfoStyle
	}

	return style.Width(toastWidth).Render(icon + " " + t.notification.Message)
}
