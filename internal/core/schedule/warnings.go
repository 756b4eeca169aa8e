package schedule

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Severity ranks a warning.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Warning is an advisory about the current task set. Warnings are derived
// fresh on every change; dismissing one is tracked by ID outside the task.
type Warning struct {
	ID         string   `json:"id"`
	Rule       string   `json:"rule"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	TaskID     string   `json:"task_id"`
	TaskName   string   `json:"task_name"`
	CanDismiss bool     `json:"can_dismiss"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Rule is one named heuristic over a task set.
type Rule struct {
	Name  string
	Check func(tasks []Task) []Warning
}

// TradeRules lists glob patterns, matched case-insensitively against task
// names, identifying finishing trades and the rough trades they must follow.
type TradeRules struct {
	Finishing []string `yaml:"finishing_trades"`
	Rough     []string `yaml:"rough_trades"`
}

// DefaultTradeRules returns the built-in trade patterns.
func DefaultTradeRules() TradeRules {
	return TradeRules{
		Finishing: []string{"*paint*"},
		Rough:     []string{"*drywall*"},
	}
}

// DefaultRules returns every built-in rule.
func DefaultRules(trades TradeRules) []Rule {
	return []Rule{
		DependencyCycleRule(),
		FinishingBeforeRoughRule(trades),
		DependencyViolationRule(),
		MissingDependencyRule(),
	}
}

// Evaluate runs every rule and returns the combined warnings, errors first.
// Rule order is preserved within a severity and duplicate IDs are dropped.
func Evaluate(rules []Rule, tasks []Task) []Warning {
	var out []Warning
	seen := make(map[string]struct{})
	for _, r := range rules {
		for _, w := range r.Check(tasks) {
			if _, ok := seen[w.ID]; ok {
				continue
			}
			seen[w.ID] = struct{}{}
			if w.Rule == "" {
				w.Rule = r.Name
			}
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b Warning) int {
		return a.Severity.rank() - b.Severity.rank()
	})
	return out
}

// FinishingBeforeRoughRule flags a finishing-trade task (paint) that starts
// on or before the last day of a non-change-order rough-trade task
// (drywall).
func FinishingBeforeRoughRule(trades TradeRules) Rule {
	const name = "finishing-before-rough"
	return Rule{
		Name: name,
		Check: func(tasks []Task) []Warning {
			var out []Warning
			for _, fin := range tasks {
				if !matchesAny(trades.Finishing, fin.Name) {
					continue
				}
				for _, rough := range tasks {
					if rough.ID == fin.ID || rough.IsChangeOrder() || !matchesAny(trades.Rough, rough.Name) {
						continue
					}
					if fin.Start.After(rough.End) {
						continue
					}
					out = append(out, Warning{
						ID:       fmt.Sprintf("%s:%s:%s", name, fin.ID, rough.ID),
						Rule:     name,
						Severity: SeverityWarning,
						Message: fmt.Sprintf("%q starts %s, before %q finishes on %s",
							fin.Name, FormatDate(fin.Start), rough.Name, FormatDate(rough.End)),
						TaskID:     fin.ID,
						TaskName:   fin.Name,
						CanDismiss: true,
						Suggestion: fmt.Sprintf("Start %q on or after %s", fin.Name, FormatDate(AddDays(rough.End, 1))),
					})
				}
			}
			return out
		},
	}
}

// DependencyViolationRule flags a task that starts before one of its
// dependencies has finished.
func DependencyViolationRule() Rule {
	const name = "dependency-violation"
	return Rule{
		Name: name,
		Check: func(tasks []Task) []Warning {
			byID := indexTasks(tasks)
			var out []Warning
			for _, t := range tasks {
				for _, d := range t.Dependencies {
					dep, ok := byID[d.TaskID]
					if !ok || t.Start.After(dep.End) {
						continue
					}
					out = append(out, Warning{
						ID:       fmt.Sprintf("%s:%s:%s", name, t.ID, dep.ID),
						Rule:     name,
						Severity: SeverityWarning,
						Message: fmt.Sprintf("%q starts %s but depends on %q, which finishes %s",
							t.Name, FormatDate(t.Start), dep.Name, FormatDate(dep.End)),
						TaskID:     t.ID,
						TaskName:   t.Name,
						CanDismiss: true,
						Suggestion: fmt.Sprintf("Start %q on or after %s", t.Name, FormatDate(AddDays(dep.End, 1))),
					})
				}
			}
			return out
		},
	}
}

// DependencyCycleRule reports every dependency cycle. Cycles cannot be
// dismissed; they make the critical path ignore the edges involved.
func DependencyCycleRule() Rule {
	const name = "dependency-cycle"
	return Rule{
		Name: name,
		Check: func(tasks []Task) []Warning {
			byID := indexTasks(tasks)
			var out []Warning
			for _, cycle := range NewGraph(tasks).Cycles() {
				names := make([]string, len(cycle))
				for i, id := range cycle {
					names[i] = fmt.Sprintf("%q", byID[id].Name)
				}
				first := byID[cycle[0]]
				out = append(out, Warning{
					ID:         fmt.Sprintf("%s:%s", name, strings.Join(cycle, ",")),
					Rule:       name,
					Severity:   SeverityError,
					Message:    "Circular dependency between " + strings.Join(names, ", "),
					TaskID:     first.ID,
					TaskName:   first.Name,
					CanDismiss: false,
					Suggestion: "Remove one of the dependencies in the cycle",
				})
			}
			return out
		},
	}
}

// MissingDependencyRule notes dependencies on tasks that are no longer part
// of the approved schedule.
func MissingDependencyRule() Rule {
	const name = "missing-dependency"
	return Rule{
		Name: name,
		Check: func(tasks []Task) []Warning {
			byID := indexTasks(tasks)
			var out []Warning
			for _, t := range tasks {
				for _, d := range t.Dependencies {
					if _, ok := byID[d.TaskID]; ok {
						continue
					}
					label := d.TaskName
					if label == "" {
						label = d.TaskID
					}
					out = append(out, Warning{
						ID:         fmt.Sprintf("%s:%s:%s", name, t.ID, d.TaskID),
						Rule:       name,
						Severity:   SeverityInfo,
						Message:    fmt.Sprintf("%q depends on %q, which is not in the approved schedule", t.Name, label),
						TaskID:     t.ID,
						TaskName:   t.Name,
						CanDismiss: true,
					})
				}
			}
			return out
		},
	}
}

// ValidPatterns reports the first invalid glob pattern, if any.
func (tr TradeRules) ValidPatterns() error {
	for _, p := range slices.Concat(tr.Finishing, tr.Rough) {
		if !doublestar.ValidatePattern(strings.ToLower(p)) {
			return fmt.Errorf("invalid trade pattern %q", p)
		}
	}
	return nil
}

// matchesAny matches name against patterns. Slashes in task names ("tape/
// mud") are not path separators, so they are flattened before matching.
func matchesAny(patterns []string, name string) bool {
	subject := strings.ReplaceAll(strings.ToLower(name), "/", " ")
	for _, p := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(p), subject); err == nil && ok {
			return true
		}
	}
	return false
}

func indexTasks(tasks []Task) map[string]Task {
	m := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}

// Dismissals tracks warnings the user has dismissed. It lives in memory
// only, so dismissals reset when the schedule is opened fresh.
type Dismissals struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDismissals creates an empty dismissal set.
func NewDismissals() *Dismissals {
	return &Dismissals{ids: make(map[string]struct{})}
}

// Dismiss suppresses the warning with id.
func (d *Dismissals) Dismiss(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[id] = struct{}{}
}

// IsDismissed reports whether id was dismissed.
func (d *Dismissals) IsDismissed(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.ids[id]
	return ok
}

// Reset clears every dismissal.
func (d *Dismissals) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = make(map[string]struct{})
}

// Filter drops dismissed warnings. Warnings that cannot be dismissed are
// always kept.
func (d *Dismissals) Filter(ws []Warning) []Warning {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Warning, 0, len(ws))
	for _, w := range ws {
		if _, ok := d.ids[w.ID]; ok && w.CanDismiss {
			continue
		}
		out = append(out, w)
	}
	return out
}
