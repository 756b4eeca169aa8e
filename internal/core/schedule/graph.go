package schedule

import (
	"slices"
	"time"
)

// Span is the calendar extent of a schedule.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// ProjectSpan returns the earliest start and latest end over every task and
// phase. It reports false for an empty task set.
func ProjectSpan(tasks []Task) (Span, bool) {
	var s Span
	found := false
	visit := func(start, end time.Time) {
		if !found || start.Before(s.Start) {
			s.Start = start
		}
		if !found || end.After(s.End) {
			s.End = end
		}
		found = true
	}

	for _, t := range tasks {
		visit(t.Start, t.End)
		for _, p := range t.Phases {
			visit(p.Start, p.End)
		}
	}
	if !found {
		return Span{}, false
	}

	s.Start, s.End = Day(s.Start), Day(s.End)
	s.Days = DaysInclusive(s.Start, s.End)
	return s, true
}

// Graph is the finish-to-start dependency graph of a task set. An edge from
// a task to one of its dependencies means the dependency must finish first.
// Edges naming tasks outside the set are ignored. Acyclicity is not assumed.
type Graph struct {
	order    []string
	index    map[string]int
	duration []int
	preds    [][]int // preds[v] = dependencies of v
}

// NewGraph builds the dependency graph of tasks.
func NewGraph(tasks []Task) *Graph {
	g := &Graph{
		order:    make([]string, len(tasks)),
		index:    make(map[string]int, len(tasks)),
		duration: make([]int, len(tasks)),
		preds:    make([][]int, len(tasks)),
	}
	for i, t := range tasks {
		g.order[i] = t.ID
		g.index[t.ID] = i
		g.duration[i] = max(DaysInclusive(t.Start, t.End), 1)
	}
	for i, t := range tasks {
		for _, d := range t.Dependencies {
			if j, ok := g.index[d.TaskID]; ok && !slices.Contains(g.preds[i], j) {
				g.preds[i] = append(g.preds[i], j)
			}
		}
	}
	return g
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}

// Predecessors returns the ids of the known dependencies of id.
func (g *Graph) Predecessors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.preds[i]))
	for _, j := range g.preds[i] {
		out = append(out, g.order[j])
	}
	return out
}

// Cycles returns every dependency cycle as the ids of its strongly connected
// component, in natural task order. A self-dependency counts as a cycle.
func (g *Graph) Cycles() [][]string {
	comps := g.components()
	var out [][]string
	for _, comp := range comps {
		if len(comp) == 1 && !slices.Contains(g.preds[comp[0]], comp[0]) {
			continue
		}
		slices.Sort(comp)
		ids := make([]string, len(comp))
		for k, v := range comp {
			ids[k] = g.order[v]
		}
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []string) int {
		return g.index[a[0]] - g.index[b[0]]
	})
	return out
}

// CriticalPath is the longest duration-weighted chain of dependent tasks.
type CriticalPath struct {
	// TaskIDs lists the chain from its first task to its last.
	TaskIDs      []string `json:"task_ids"`
	DurationDays int      `json:"duration_days"`
	// CyclicTaskIDs lists tasks caught in dependency cycles. Edges inside a
	// cycle carry no weight.
	CyclicTaskIDs []string `json:"cyclic_task_ids,omitempty"`
}

// Contains reports whether id lies on the critical path.
func (cp CriticalPath) Contains(id string) bool {
	return slices.Contains(cp.TaskIDs, id)
}

// CriticalPath computes the longest chain through the graph, weighting each
// task by its duration. Edges between tasks in the same cycle are excluded,
// which leaves a DAG. Ties go to the chain with more tasks, then to the
// earliest task in natural order.
func (g *Graph) CriticalPath() CriticalPath {
	n := len(g.order)
	if n == 0 {
		return CriticalPath{}
	}

	comp := make([]int, n)
	var cp CriticalPath
	for c, members := range g.components() {
		for _, v := range members {
			comp[v] = c
		}
	}
	for _, cycle := range g.Cycles() {
		cp.CyclicTaskIDs = append(cp.CyclicTaskIDs, cycle...)
	}

	preds := make([][]int, n)
	succs := make([][]int, n)
	indegree := make([]int, n)
	for v := range n {
		for _, u := range g.preds[v] {
			if comp[u] == comp[v] {
				continue
			}
			preds[v] = append(preds[v], u)
			succs[u] = append(succs[u], v)
			indegree[v]++
		}
	}

	// Kahn's algorithm; the ready list is kept in natural order so results
	// are deterministic.
	ready := make([]int, 0, n)
	for v := range n {
		if indegree[v] == 0 {
			ready = append(ready, v)
		}
	}
	topo := make([]int, 0, n)
	for len(ready) > 0 {
		v := ready[0]
		ready = ready[1:]
		topo = append(topo, v)
		for _, w := range succs[v] {
			indegree[w]--
			if indegree[w] == 0 {
				i, _ := slices.BinarySearch(ready, w)
				ready = slices.Insert(ready, i, w)
			}
		}
	}

	// hops counts the tasks on the chain ending at v. Equal durations go to
	// the chain with more tasks, then to natural order.
	dist := make([]int, n)
	hops := make([]int, n)
	prev := make([]int, n)
	longer := func(a, b int) bool {
		return dist[a] > dist[b] || (dist[a] == dist[b] && hops[a] > hops[b])
	}
	for _, v := range topo {
		prev[v] = -1
		for _, u := range preds[v] {
			if prev[v] < 0 || longer(u, prev[v]) {
				prev[v] = u
			}
		}
		dist[v], hops[v] = g.duration[v], 1
		if p := prev[v]; p >= 0 {
			dist[v] += dist[p]
			hops[v] += hops[p]
		}
	}

	end := 0
	for v := 1; v < n; v++ {
		if longer(v, end) {
			end = v
		}
	}

	for v := end; v >= 0; v = prev[v] {
		cp.TaskIDs = append(cp.TaskIDs, g.order[v])
	}
	slices.Reverse(cp.TaskIDs)
	cp.DurationDays = dist[end]
	return cp
}

// components returns the strongly connected components (Tarjan).
func (g *Graph) components() [][]int {
	n := len(g.order)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		stack []int
		comps [][]int
		next  int
	)

	var connect func(v int)
	connect = func(v int) {
		index[v], low[v] = next, next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.preds[v] {
			switch {
			case index[w] < 0:
				connect(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for v := range n {
		if index[v] < 0 {
			connect(v)
		}
	}
	return comps
}
