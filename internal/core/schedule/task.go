// Package schedule defines the scheduling domain model: tasks derived from
// priced line items, their phases and dependencies, and the pure engines that
// derive progress, the critical path, warnings, display order and exports
// from a task set.
package schedule

import (
	"fmt"
	"slices"
	"time"
)

// Category classifies the work a task represents. It drives color coding only.
type Category string

const (
	CategoryLabor         Category = "labor"
	CategorySubcontractor Category = "subcontractors"
	CategoryMaterials     Category = "materials"
	CategoryEquipment     Category = "equipment"
	CategoryPermits       Category = "permits"
	CategoryManagement    Category = "management"
	CategoryOther         Category = "other"
)

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryLabor, CategorySubcontractor, CategoryMaterials,
		CategoryEquipment, CategoryPermits, CategoryManagement, CategoryOther:
		return true
	default:
		return false
	}
}

// ParseCategory maps a stored category to a Category. Unknown values map to
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(s)
	if c.IsValid() {
		return c
	}
	// estimating records historically used the singular form
	if s == "subcontractor" {
		return CategorySubcontractor
	}
	return CategoryOther
}

// SourceKind tags which backing collection a task was derived from. It is
// decided once by the builder and routes persistence.
type SourceKind string

const (
	SourceEstimateLine    SourceKind = "estimate_line"
	SourceChangeOrderLine SourceKind = "change_order_line"
)

// IsValid reports whether k is a known source kind.
func (k SourceKind) IsValid() bool {
	return k == SourceEstimateLine || k == SourceChangeOrderLine
}

// Relation is the kind of a dependency edge. Only finish-to-start exists.
type Relation string

const RelationFinishToStart Relation = "finish_to_start"

// Dependency states that the owning task should not start before TaskID
// finishes. Dependencies are advisory: they are flagged when violated, never
// enforced by moving tasks.
type Dependency struct {
	TaskID   string     `json:"task_id"`
	TaskName string     `json:"task_name"`
	TaskType SourceKind `json:"task_type"`
	Relation Relation   `json:"relation"`
}

// Task is a unit of work on the timeline.
type Task struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Category          Category     `json:"category"`
	Start             time.Time    `json:"start"`
	End               time.Time    `json:"end"`
	DurationDays      int          `json:"duration_days"`
	Source            SourceKind   `json:"source"`
	ChangeOrderNumber string       `json:"change_order_number,omitempty"`
	Dependencies      []Dependency `json:"dependencies"`
	Phases            []Phase      `json:"phases,omitempty"`
	// Completed is the manual completion mark of a single-phase task. Nil
	// means no mark was ever recorded and progress falls back to cost.
	Completed     *bool   `json:"completed,omitempty"`
	EstimatedCost float64 `json:"estimated_cost"`
	ActualCost    float64 `json:"actual_cost"`
	Notes         string  `json:"notes,omitempty"`
	IsMilestone   bool    `json:"is_milestone,omitempty"`
}

// IsChangeOrder reports whether the task comes from a change-order line.
func (t Task) IsChangeOrder() bool {
	return t.Source == SourceChangeOrderLine
}

// HasMultiplePhases reports whether the task is split into several visits.
func (t Task) HasMultiplePhases() bool {
	return len(t.Phases) > 1
}

// IsCompleted reports whether the task is done: every phase completed when
// phases exist, otherwise the manual mark.
func (t Task) IsCompleted() bool {
	if len(t.Phases) > 0 {
		for _, p := range t.Phases {
			if !p.Completed {
				return false
			}
		}
		return true
	}
	return t.Completed != nil && *t.Completed
}

// DependsOn reports whether t has a dependency on id.
func (t Task) DependsOn(id string) bool {
	return slices.ContainsFunc(t.Dependencies, func(d Dependency) bool { return d.TaskID == id })
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Dependencies = slices.Clone(t.Dependencies)
	c.Phases = slices.Clone(t.Phases)
	if t.Completed != nil {
		v := *t.Completed
		c.Completed = &v
	}
	return c
}

// Normalize restores the derived fields: dates are truncated to days, phase
// durations recomputed, the task span derived from its phases when present,
// and DurationDays recomputed from the span.
func (t *Task) Normalize() {
	if len(t.Phases) > 0 {
		for i := range t.Phases {
			t.Phases[i].normalize()
		}
		start, end := t.Phases[0].Start, t.Phases[0].End
		for _, p := range t.Phases[1:] {
			if p.Start.Before(start) {
				start = p.Start
			}
			if p.End.After(end) {
				end = p.End
			}
		}
		t.Start, t.End = start, end
	}

	t.Start, t.End = Day(t.Start), Day(t.End)
	if t.End.Before(t.Start) {
		t.End = t.Start
	}
	t.DurationDays = DaysInclusive(t.Start, t.End)
}

// Reschedule moves the task to [start, end]. A single-phase task takes the
// dates as given. A multi-phase task shifts every phase by the start delta
// and stretches its latest phase to end; the span is then re-derived from
// the phases.
func (t *Task) Reschedule(start, end time.Time) error {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return fmt.Errorf("reschedule %s: %w", t.ID, ErrInvalidRange)
	}

	if len(t.Phases) == 0 {
		t.Start, t.End = start, end
		t.Normalize()
		return nil
	}

	delta := DaysBetween(t.Start, start)
	for i := range t.Phases {
		t.Phases[i].Start = AddDays(t.Phases[i].Start, delta)
		t.Phases[i].End = AddDays(t.Phases[i].End, delta)
	}

	last := 0
	for i, p := range t.Phases {
		if p.End.After(t.Phases[last].End) {
			last = i
		}
	}
	if end.Before(t.Phases[last].Start) {
		end = t.Phases[last].Start
	}
	t.Phases[last].End = end

	t.Normalize()
	return nil
}

// Shift moves the whole task, phases included, by days.
func (t *Task) Shift(days int) {
	t.Start = AddDays(t.Start, days)
	t.End = AddDays(t.End, days)
	for i := range t.Phases {
		t.Phases[i].Start = AddDays(t.Phases[i].Start, days)
		t.Phases[i].End = AddDays(t.Phases[i].End, days)
	}
	t.Normalize()
}

// SetCompleted records a manual completion mark. On a phased task the mark
// is applied to every phase instead.
func (t *Task) SetCompleted(done bool) {
	if len(t.Phases) > 0 {
		for i := range t.Phases {
			t.Phases[i].Completed = done
		}
		return
	}
	t.Completed = &done
}

// SetDependencies replaces the dependency list. Self references and
// duplicates are dropped and every relation is forced to finish-to-start.
func (t *Task) SetDependencies(deps []Dependency) {
	t.Dependencies = cleanDependencies(t.ID, deps)
}

func cleanDependencies(owner string, deps []Dependency) []Dependency {
	out := make([]Dependency, 0, len(deps))
	seen := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		if d.TaskID == "" || d.TaskID == owner {
			continue
		}
		if _, ok := seen[d.TaskID]; ok {
			continue
		}
		seen[d.TaskID] = struct{}{}
		d.Relation = RelationFinishToStart
		if !d.TaskType.IsValid() {
			d.TaskType = SourceEstimateLine
		}
		out = append(out, d)
	}
	return out
}

// FindTask returns the index of the task with id, or -1.
func FindTask(tasks []Task, id string) int {
	return slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
}

// CloneTasks deep-copies a task slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
