package schedule

// Analysis is everything derived from a task set in one pass, in the order
// the read path flows: progress, dependency graph, warnings.
type Analysis struct {
	Tasks        []Task              `json:"tasks"`
	Progress     map[string]Progress `json:"progress"`
	Summary      Summary             `json:"summary"`
	Span         *Span               `json:"span,omitempty"`
	CriticalPath CriticalPath        `json:"critical_path"`
	Warnings     []Warning           `json:"warnings"`
}

// Analyze derives progress, span, critical path and warnings. The returned
// tasks are copies carrying their actual cost; the input is not modified.
func Analyze(tasks []Task, entries []CostEntry, rules []Rule) Analysis {
	out := CloneTasks(tasks)
	progress := ComputeProgress(out, entries)
	ApplyActualCost(out, progress)

	a := Analysis{
		Tasks:        out,
		Progress:     progress,
		Summary:      Summarize(out, progress),
		CriticalPath: NewGraph(out).CriticalPath(),
		Warnings:     Evaluate(rules, out),
	}
	if span, ok := ProjectSpan(out); ok {
		a.Span = &span
	}
	if a.Warnings == nil {
		a.Warnings = []Warning{}
	}
	return a
}
