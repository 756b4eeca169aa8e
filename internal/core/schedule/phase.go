package schedule

import (
	"fmt"
	"slices"
	"time"
)

// Phase is one field visit of a multi-phase task.
type Phase struct {
	PhaseNumber  int       `json:"phase_number"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	DurationDays int       `json:"duration_days"`
	Description  string    `json:"description,omitempty"`
	Completed    bool      `json:"completed"`
	Notes        string    `json:"notes,omitempty"`
}

func (p *Phase) normalize() {
	p.Start, p.End = Day(p.Start), Day(p.End)
	if p.End.Before(p.Start) {
		p.End = p.Start
	}
	p.DurationDays = DaysInclusive(p.Start, p.End)
}

// AddPhase inserts p, keeping phases ordered by start date, and renumbers.
func (t *Task) AddPhase(p Phase) error {
	if Day(p.End).Before(Day(p.Start)) {
		return fmt.Errorf("add phase to %s: %w", t.ID, ErrInvalidRange)
	}

	t.Phases = append(t.Phases, p)
	slices.SortStableFunc(t.Phases, func(a, b Phase) int {
		return a.Start.Compare(b.Start)
	})
	renumberPhases(t.Phases)
	t.Normalize()
	return nil
}

// UpdatePhase replaces the phase numbered number with p, keeping its number.
func (t *Task) UpdatePhase(number int, p Phase) error {
	i := slices.IndexFunc(t.Phases, func(ph Phase) bool { return ph.PhaseNumber == number })
	if i < 0 {
		return fmt.Errorf("update phase %d of %s: %w", number, t.ID, ErrPhaseNotFound)
	}
	if Day(p.End).Before(Day(p.Start)) {
		return fmt.Errorf("update phase %d of %s: %w", number, t.ID, ErrInvalidRange)
	}

	p.PhaseNumber = number
	t.Phases[i] = p
	t.Normalize()
	return nil
}

// RemovePhase deletes the phase numbered number and renumbers the rest so
// numbers stay contiguous. Removing the last phase leaves a single-phase
// task spanning the removed phase's dates.
func (t *Task) RemovePhase(number int) error {
	i := slices.IndexFunc(t.Phases, func(ph Phase) bool { return ph.PhaseNumber == number })
	if i < 0 {
		return fmt.Errorf("remove phase %d of %s: %w", number, t.ID, ErrPhaseNotFound)
	}

	removed := t.Phases[i]
	t.Phases = slices.Delete(t.Phases, i, i+1)
	if len(t.Phases) == 0 {
		t.Phases = nil
		t.Start, t.End = removed.Start, removed.End
	}
	renumberPhases(t.Phases)
	t.Normalize()
	return nil
}

// ClearPhases reduces the task back to single-phase mode, keeping its span.
// The task counts as completed afterwards only if every phase was.
func (t *Task) ClearPhases() {
	if len(t.Phases) == 0 {
		return
	}
	done := t.IsCompleted()
	t.Phases = nil
	t.Completed = &done
	t.Normalize()
}

// SplitEvenly replaces the task's phases with n contiguous phases covering
// its current span. Leftover days go to the earliest phases.
func (t *Task) SplitEvenly(n int) error {
	t.Normalize()
	if n < 1 || n > t.DurationDays {
		return fmt.Errorf("split %s into %d phases: need between 1 and %d", t.ID, n, t.DurationDays)
	}

	base, extra := t.DurationDays/n, t.DurationDays%n
	phases := make([]Phase, 0, n)
	cursor := t.Start
	for i := range n {
		days := base
		if i < extra {
			days++
		}
		phases = append(phases, Phase{
			PhaseNumber: i + 1,
			Start:       cursor,
			End:         AddDays(cursor, days-1),
		})
		cursor = AddDays(cursor, days)
	}

	t.Phases = phases
	t.Completed = nil
	t.Normalize()
	return nil
}

func renumberPhases(phases []Phase) {
	for i := range phases {
		phases[i].PhaseNumber = i + 1
	}
}
