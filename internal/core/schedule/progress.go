package schedule

import "math"

// ProgressBasis names the rule that produced a progress figure.
type ProgressBasis string

const (
	BasisPhases ProgressBasis = "phases"
	BasisManual ProgressBasis = "manual"
	BasisCost   ProgressBasis = "cost"
)

// Progress is the derived completion of one task.
type Progress struct {
	TaskID     string        `json:"task_id"`
	Percent    int           `json:"percent"`
	ActualCost float64       `json:"actual_cost"`
	Basis      ProgressBasis `json:"basis"`
}

// ComputeProgress derives completion and actual cost for every task.
//
// Completion comes from the first rule that applies: the share of completed
// phases, then the manual completion mark, then actual cost over estimated
// cost. Actual cost is always the sum of correlated entries regardless of
// which rule produced the percentage.
func ComputeProgress(tasks []Task, entries []CostEntry) map[string]Progress {
	actual := make(map[string]float64, len(tasks))
	for _, e := range entries {
		actual[e.LineItemID] += e.Amount
	}

	out := make(map[string]Progress, len(tasks))
	for _, t := range tasks {
		cost := actual[t.ID]
		p := Progress{TaskID: t.ID, ActualCost: cost}

		switch {
		case len(t.Phases) > 0:
			done := 0
			for _, ph := range t.Phases {
				if ph.Completed {
					done++
				}
			}
			p.Basis = BasisPhases
			p.Percent = percent(float64(done), float64(len(t.Phases)))
		case t.Completed != nil:
			p.Basis = BasisManual
			if *t.Completed {
				p.Percent = 100
			}
		default:
			p.Basis = BasisCost
			p.Percent = percent(cost, t.EstimatedCost)
		}

		out[t.ID] = p
	}
	return out
}

// ApplyActualCost copies computed actual costs onto tasks.
func ApplyActualCost(tasks []Task, progress map[string]Progress) {
	for i := range tasks {
		tasks[i].ActualCost = progress[tasks[i].ID].ActualCost
	}
}

// Summary aggregates progress across a task set.
type Summary struct {
	TaskCount      int     `json:"task_count"`
	CompletedCount int     `json:"completed_count"`
	EstimatedCost  float64 `json:"estimated_cost"`
	ActualCost     float64 `json:"actual_cost"`
	// Percent is the estimated-cost weighted mean of task progress, or the
	// plain mean when nothing carries an estimate.
	Percent int `json:"percent"`
}

// Summarize rolls task progress up to the project.
func Summarize(tasks []Task, progress map[string]Progress) Summary {
	var s Summary
	var weighted, plain float64
	for _, t := range tasks {
		p := progress[t.ID]
		s.TaskCount++
		if p.Percent == 100 {
			s.CompletedCount++
		}
		s.EstimatedCost += t.EstimatedCost
		s.ActualCost += p.ActualCost
		weighted += t.EstimatedCost * float64(p.Percent)
		plain += float64(p.Percent)
	}

	switch {
	case s.EstimatedCost > 0:
		s.Percent = clampPercent(math.Round(weighted / s.EstimatedCost))
	case s.TaskCount > 0:
		s.Percent = clampPercent(math.Round(plain / float64(s.TaskCount)))
	}
	return s
}

func percent(part, whole float64) int {
	if whole <= 0 || math.IsNaN(part) || math.IsInf(part, 0) {
		return 0
	}
	return clampPercent(math.Round(100 * part / whole))
}

func clampPercent(v float64) int {
	return int(min(max(v, 0), 100))
}
