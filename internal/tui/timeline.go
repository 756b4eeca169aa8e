package tui

import (
	"strings"
	"time"

	"github.com/colonyops/buildsched/internal/core/schedule"
)

// column maps day to a cell in a timeline of width cells covering span.
func column(day time.Time, span schedule.Span, width int) int {
	if span.Days <= 0 || width <= 0 {
		return 0
	}
	offset := schedule.DaysBetween(span.Start, schedule.Day(day))
	col := offset * width / span.Days
	return min(max(col, 0), width-1)
}

// renderBar draws the task's occupied days across width cells. Phased tasks
// show each visit as a separate run with gaps between them.
func renderBar(task schedule.Task, span schedule.Span, width int) string {
	if width <= 0 {
		return ""
	}
	cells := make([]string, width)
	for i := range cells {
		cells[i] = barEmpty
	}

	fill := func(start, end time.Time) {
		from, to := column(start, span, width), column(end, span, width)
		for i := from; i <= to; i++ {
			cells[i] = barFull
		}
	}

	if len(task.Phases) > 1 {
		first := column(task.Phases[0].Start, span, width)
		last := column(task.Phases[len(task.Phases)-1].End, span, width)
		for i := first; i <= last; i++ {
			cells[i] = barGap
		}
		for _, p := range task.Phases {
			fill(p.Start, p.End)
		}
	} else {
		fill(task.Start, task.End)
	}

	if task.IsMilestone {
		cells[column(task.Start, span, width)] = iconMilestone
	}
	return strings.Join(cells, "")
}
