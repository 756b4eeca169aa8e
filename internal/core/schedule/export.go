package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxBreakdownDays bounds DailyBreakdown against corrupt dates.
const maxBreakdownDays = 3660

// ExportRow is one line of the tabular export: a task, or one phase of a
// task when exporting per phase.
type ExportRow struct {
	TaskID            string  `json:"task_id"`
	TaskName          string  `json:"task_name"`
	Category          string  `json:"category"`
	Source            string  `json:"source"`
	ChangeOrderNumber string  `json:"change_order_number,omitempty"`
	PhaseNumber       int     `json:"phase_number,omitempty"`
	PhaseDescription  string  `json:"phase_description,omitempty"`
	Start             string  `json:"start"`
	End               string  `json:"end"`
	DurationDays      int     `json:"duration_days"`
	Completed         bool    `json:"completed"`
	Progress          int     `json:"progress"`
	EstimatedCost     float64 `json:"estimated_cost"`
	ActualCost        float64 `json:"actual_cost"`
	Dependencies      string  `json:"dependencies"`
	Critical          bool    `json:"critical"`
	Notes             string  `json:"notes,omitempty"`
}

var exportHeader = []string{
	"Task ID", "Task", "Category", "Source", "Change Order", "Phase", "Phase Description",
	"Start", "End", "Duration (days)", "Completed", "Progress (%)",
	"Estimated Cost", "Actual Cost", "Depends On", "Critical", "Notes",
}

// ExportRows projects tasks, in the order given, to flat rows. With perPhase
// set, phased tasks produce one row per phase and costs stay on the task's
// first row only.
func ExportRows(tasks []Task, progress map[string]Progress, critical CriticalPath, perPhase bool) []ExportRow {
	rows := make([]ExportRow, 0, len(tasks))
	for _, t := range tasks {
		deps := make([]string, 0, len(t.Dependencies))
		for _, d := range t.Dependencies {
			label := d.TaskName
			if label == "" {
				label = d.TaskID
			}
			deps = append(deps, label)
		}

		base := ExportRow{
			TaskID:            t.ID,
			TaskName:          t.Name,
			Category:          string(t.Category),
			Source:            string(t.Source),
			ChangeOrderNumber: t.ChangeOrderNumber,
			Start:             FormatDate(t.Start),
			End:               FormatDate(t.End),
			DurationDays:      t.DurationDays,
			Completed:         t.IsCompleted(),
			Progress:          progress[t.ID].Percent,
			EstimatedCost:     t.EstimatedCost,
			ActualCost:        progress[t.ID].ActualCost,
			Dependencies:      strings.Join(deps, "; "),
			Critical:          critical.Contains(t.ID),
			Notes:             t.Notes,
		}

		if !perPhase || len(t.Phases) == 0 {
			rows = append(rows, base)
			continue
		}

		for i, p := range t.Phases {
			row := base
			row.PhaseNumber = p.PhaseNumber
			row.PhaseDescription = p.Description
			row.Start = FormatDate(p.Start)
			row.End = FormatDate(p.End)
			row.DurationDays = p.DurationDays
			row.Completed = p.Completed
			row.Notes = p.Notes
			if i > 0 {
				row.EstimatedCost, row.ActualCost = 0, 0
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		phase := ""
		if r.PhaseNumber > 0 {
			phase = strconv.Itoa(r.PhaseNumber)
		}
		record := []string{
			r.TaskID, r.TaskName, r.Category, r.Source, r.ChangeOrderNumber, phase, r.PhaseDescription,
			r.Start, r.End, strconv.Itoa(r.DurationDays), strconv.FormatBool(r.Completed), strconv.Itoa(r.Progress),
			formatMoney(r.EstimatedCost), formatMoney(r.ActualCost), r.Dependencies, strconv.FormatBool(r.Critical), r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.TaskID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// DayActivity lists the work happening on one calendar day.
type DayActivity struct {
	Date  time.Time `json:"date"`
	Items []DayItem `json:"items"`
}

// DayItem is a task, or a phase of one, active on a given day.
type DayItem struct {
	TaskID      string   `json:"task_id"`
	TaskName    string   `json:"task_name"`
	Category    Category `json:"category"`
	PhaseNumber int      `json:"phase_number,omitempty"`
	Description string   `json:"description,omitempty"`
}

// DailyBreakdown lists, for every day of the schedule span, the tasks active
// that day. A phased task is active only on days covered by one of its
// phases, so the gaps between visits stay empty.
func DailyBreakdown(tasks []Task) ([]DayActivity, error) {
	span, ok := ProjectSpan(tasks)
	if !ok {
		return nil, nil
	}
	if span.Days > maxBreakdownDays {
		return nil, fmt.Errorf("daily breakdown over %d days: %w", span.Days, ErrSpanTooLarge)
	}

	days := make([]DayActivity, span.Days)
	for i := range days {
		days[i] = DayActivity{Date: AddDays(span.Start, i), Items: []DayItem{}}
	}

	mark := func(start, end time.Time, item DayItem) {
		from := DaysBetween(span.Start, start)
		to := DaysBetween(span.Start, end)
		for d := from; d <= to; d++ {
			days[d].Items = append(days[d].Items, item)
		}
	}

	for _, t := range tasks {
		item := DayItem{TaskID: t.ID, TaskName: t.Name, Category: t.Category}
		if len(t.Phases) == 0 {
			mark(t.Start, t.End, item)
			continue
		}
		for _, p := range t.Phases {
			pi := item
			pi.PhaseNumber = p.PhaseNumber
			pi.Description = p.Description
			mark(p.Start, p.End, pi)
		}
	}
	return days, nil
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
