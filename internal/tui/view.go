package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/scheduler"
)

const (
	nameWidth    = 28
	minBarWidth  = 10
	rowOverhead  = nameWidth + 16
	maxWarnLines = 6
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return mutedStyle.Render("saving pending changes...") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case !m.loaded && m.err != nil:
		b.WriteString(errorStyle.Render(iconError+" "+m.err.Error()) + "\n")
		b.WriteString(mutedStyle.Render("press r to retry") + "\n")
	case !m.loaded:
		b.WriteString(mutedStyle.Render("loading schedule...") + "\n")
	default:
		if m.err != nil {
			b.WriteString(warnStyle.Render(iconWarning+" "+m.err.Error()) + "\n")
		}
		b.WriteString(m.renderTasks())
		if w := m.renderWarnings(); w != "" {
			b.WriteString("\n" + w)
		}
		if m.detail && len(m.board.Tasks) > 0 {
			b.WriteString("\n" + m.renderDetail(m.board.Tasks[m.cursor]))
		}
	}

	if m.status != "" {
		b.WriteString("\n" + mutedStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))

	if toasts := renderToasts(m.toasts, m.width); toasts != "" {
		b.WriteString("\n" + toasts)
	}
	return b.String()
}

func (m Model) renderHeader() string {
	name := m.projectID
	if m.board.Project.Name != "" {
		name = m.board.Project.Name
	}
	title := titleStyle.Render(name)
	if !m.loaded {
		return title
	}

	s := m.board.Summary
	parts := []string{
		fmt.Sprintf("%d%% complete", s.Percent),
		fmt.Sprintf("%d/%d tasks", s.CompletedCount, s.TaskCount),
		fmt.Sprintf("%s of %s", money(s.ActualCost), money(s.EstimatedCost)),
	}
	if span := m.board.Span; span != nil {
		parts = append(parts, fmt.Sprintf("%s → %s (%d days)",
			schedule.FormatDate(span.Start), schedule.FormatDate(span.End), span.Days))
	}
	parts = append(parts, "sort: "+string(m.board.Preferences.Mode))
	parts = append(parts, "loaded "+humanize.Time(m.loadedAt))

	return title + "  " + mutedStyle.Render(strings.Join(parts, " "+iconDot+" "))
}

func (m Model) renderTasks() string {
	if len(m.board.Tasks) == 0 {
		return mutedStyle.Render("no tasks") + "\n"
	}

	var span schedule.Span
	if m.board.Span != nil {
		span = *m.board.Span
	}
	barWidth := max(m.width-rowOverhead, minBarWidth)

	var b strings.Builder
	for i, t := range m.board.Tasks {
		b.WriteString(m.renderRow(i, t, span, barWidth))
		b.WriteString("\n")

		if m.showPhases && t.HasMultiplePhases() {
			for _, p := range t.Phases {
				line := fmt.Sprintf("    phase %d  %s → %s", p.PhaseNumber, schedule.FormatDate(p.Start), schedule.FormatDate(p.End))
				if p.Completed {
					line += " " + iconConfirmed
				}
				b.WriteString(mutedStyle.Render(line) + "\n")
			}
		}
	}
	return b.String()
}

func (m Model) renderRow(i int, t schedule.Task, span schedule.Span, barWidth int) string {
	marker := " "
	if slices.Contains(m.board.CriticalPath.TaskIDs, t.ID) {
		marker = criticalStyle.Render(iconCritical)
	}

	name := truncate(t.Name, nameWidth)
	switch {
	case t.IsCompleted():
		name = doneStyle.Render(name)
	case t.IsChangeOrder():
		name = coStyle.Render(name)
	}
	name += strings.Repeat(" ", nameWidth-lipgloss.Width(truncate(t.Name, nameWidth)))

	pct := fmt.Sprintf("%3d%%", m.board.Progress[t.ID].Percent)
	row := fmt.Sprintf("%s %s %s %s %s", marker, name, pct, renderBar(t, span, barWidth), stateIcon(m.board.Edits[t.ID]))

	if i == m.cursor {
		return selectedStyle.Render(row)
	}
	return row
}

func stateIcon(s scheduler.EditState) string {
	switch s {
	case scheduler.StateEditing, scheduler.StateApplied, scheduler.StatePersisting:
		return warnStyle.Render(iconPending)
	case scheduler.StateConfirmed:
		return doneStyle.Render(iconConfirmed)
	case scheduler.StateRolledBack:
		return errorStyle.Render(iconRolledBack)
	default:
		return " "
	}
}

func (m Model) renderWarnings() string {
	ws := m.board.Warnings
	if len(ws) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(warnStyle.Render(fmt.Sprintf("%s %d warnings", iconWarning, len(ws))) + "\n")
	for i, w := range ws {
		if i == maxWarnLines {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... %d more", len(ws)-maxWarnLines)) + "\n")
			break
		}
		style := warnStyle
		if w.Severity == schedule.SeverityError {
			style = errorStyle
		}
		b.WriteString("  " + style.Render(w.Message))
		if w.Suggestion != "" {
			b.WriteString(mutedStyle.Render("  " + w.Suggestion))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail(t schedule.Task) string {
	lines := []string{
		titleStyle.Render(t.Name),
		fmt.Sprintf("dates     %s → %s (%d days)", schedule.FormatDate(t.Start), schedule.FormatDate(t.End), t.DurationDays),
		fmt.Sprintf("category  %s", t.Category),
		fmt.Sprintf("cost      %s of %s", money(t.ActualCost), money(t.EstimatedCost)),
	}
	if t.IsChangeOrder() {
		lines = append(lines, "change order "+t.ChangeOrderNumber)
	}
	if len(t.Dependencies) > 0 {
		names := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			names = append(names, d.TaskName)
		}
		lines = append(lines, "after     "+strings.Join(names, ", "))
	}
	if t.Notes != "" {
		lines = append(lines, "", t.Notes)
	}
	return detailStyle.Render(strings.Join(lines, "\n"))
}

func money(v float64) string {
	return "$" + humanize.Comma(int64(v))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
