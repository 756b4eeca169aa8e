package schedule

import (
	"fmt"
	"time"
)

// DefaultDurationDays is the placeholder length of a task that has never been
// scheduled.
const DefaultDurationDays = 7

// Builder turns line items into tasks.
type Builder struct {
	now             func() time.Time
	defaultDuration int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock sets the clock used for the "start today" placeholder.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithDefaultDuration sets the placeholder duration for unscheduled tasks.
func WithDefaultDuration(days int) BuilderOption {
	return func(b *Builder) {
		if days > 0 {
			b.defaultDuration = days
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		now:             time.Now,
		defaultDuration: DefaultDurationDays,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build maps every line item of ds to a task, preserving input order.
// Dependency names and types are refreshed from the built set so renamed
// line items do not leave stale labels behind.
func (b *Builder) Build(ds Dataset) []Task {
	fallback := Day(b.now())
	if ds.Project.StartDate != nil {
		fallback = Day(*ds.Project.StartDate)
	}

	tasks := make([]Task, 0, len(ds.LineItems))
	for _, li := range ds.LineItems {
		tasks = append(tasks, b.task(li, fallback))
	}

	byID := make(map[string]int, len(tasks))
	for i, t := range tasks {
		byID[t.ID] = i
	}
	for i := range tasks {
		for j, d := range tasks[i].Dependencies {
			if k, ok := byID[d.TaskID]; ok {
				tasks[i].Dependencies[j].TaskName = tasks[k].Name
				tasks[i].Dependencies[j].TaskType = tasks[k].Source
			}
		}
	}

	return tasks
}

func (b *Builder) task(li LineItem, fallbackStart time.Time) Task {
	source := li.Source
	if !source.IsValid() {
		source = SourceEstimateLine
	}

	t := Task{
		ID:            li.ID,
		Name:          taskName(li, source),
		Category:      ParseCategory(li.Category),
		Source:        source,
		EstimatedCost: max(li.TotalCost, 0),
		IsMilestone:   li.IsMilestone,
	}
	if source == SourceChangeOrderLine {
		t.ChangeOrderNumber = li.ChangeOrderNumber
	}

	start := fallbackStart
	if li.ScheduledStart != nil {
		start = Day(*li.ScheduledStart)
	}

	var end time.Time
	switch {
	case li.ScheduledEnd != nil:
		end = Day(*li.ScheduledEnd)
	case li.DurationDays > 0:
		end = AddDays(start, li.DurationDays-1)
	default:
		end = AddDays(start, b.defaultDuration-1)
	}
	t.Start, t.End = start, end

	doc := ParseSubDocument(li.ScheduleNotes)
	t.Phases = doc.Phases
	t.Completed = doc.Completed
	t.Notes = doc.Notes
	t.Dependencies = cleanDependencies(t.ID, li.Dependencies)

	t.Normalize()
	return t
}

func taskName(li LineItem, source SourceKind) string {
	name := li.Description
	if name == "" {
		name = string(ParseCategory(li.Category))
	}
	if source == SourceChangeOrderLine && li.ChangeOrderNumber != "" {
		return fmt.Sprintf("%s: %s", li.ChangeOrderNumber, name)
	}
	return name
}
