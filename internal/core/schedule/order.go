package schedule

import (
	"fmt"
	"slices"
	"strings"
)

// SortMode selects how tasks are ordered for display.
type SortMode string

const (
	SortNatural   SortMode = "natural"
	SortStartDate SortMode = "start_date"
	SortManual    SortMode = "manual"
)

// IsValid reports whether m is a known sort mode.
func (m SortMode) IsValid() bool {
	switch m {
	case SortNatural, SortStartDate, SortManual:
		return true
	default:
		return false
	}
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	switch m {
	case SortNatural:
		return SortStartDate
	case SortStartDate:
		return SortManual
	default:
		return SortNatural
	}
}

// Preferences is the per-project display state. It only ever reorders the
// displayed list and never feeds back into dates or dependencies.
type Preferences struct {
	Mode  SortMode `json:"mode"`
	Order []string `json:"order"`
}

// DefaultPreferences is the fallback when nothing was stored.
func DefaultPreferences(tasks []Task) Preferences {
	return Preferences{Mode: SortNatural, Order: ReconcileOrder(nil, tasks)}
}

// ReconcileOrder fits a stored order to the current task set: ids that no
// longer exist are dropped, duplicates collapse to their first position, and
// new tasks are appended in natural order.
func ReconcileOrder(saved []string, tasks []Task) []string {
	known := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}

	out := make([]string, 0, len(tasks))
	placed := make(map[string]struct{}, len(tasks))
	for _, id := range saved {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, id)
	}
	for _, t := range tasks {
		if _, ok := placed[t.ID]; !ok {
			placed[t.ID] = struct{}{}
			out = append(out, t.ID)
		}
	}
	return out
}

// MoveUp swaps id with the entry above it. Moving the first entry is a no-op.
func MoveUp(order []string, id string) ([]string, error) {
	return swapAdjacent(order, id, -1)
}

// MoveDown swaps id with the entry below it. Moving the last entry is a no-op.
func MoveDown(order []string, id string) ([]string, error) {
	return swapAdjacent(order, id, 1)
}

func swapAdjacent(order []string, id string, dir int) ([]string, error) {
	i := slices.Index(order, id)
	if i < 0 {
		return nil, fmt.Errorf("move %s: %w", id, ErrTaskNotFound)
	}
	out := slices.Clone(order)
	j := i + dir
	if j < 0 || j >= len(out) {
		return out, nil
	}
	out[i], out[j] = out[j], out[i]
	return out, nil
}

// ApplyOrder returns tasks in display order. The input slice is untouched.
func ApplyOrder(tasks []Task, prefs Preferences) []Task {
	out := slices.Clone(tasks)
	switch prefs.Mode {
	case SortStartDate:
		slices.SortStableFunc(out, func(a, b Task) int {
			if c := a.Start.Compare(b.Start); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
	case SortManual:
		order := ReconcileOrder(prefs.Order, tasks)
		pos := make(map[string]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		slices.SortStableFunc(out, func(a, b Task) int {
			return pos[a.ID] - pos[b.ID]
		})
	}
	return out
}
