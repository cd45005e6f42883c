package scheduler

import (
	"slices"

	"github.com/roach88/workplan/internal/label"
)

// Node is one item to order: a system within a workload, or a workload.
type Node struct {
	Name string
	// Labels are the labels the node answers to.
	Labels *label.Set
	// Before and After name labels of nodes this one runs before or after.
	Before *label.Set
	After  *label.Set
}

// Resolve orders nodes so every before/after constraint holds, keeping
// declaration order wherever constraints leave a choice: among nodes whose
// predecessors are all placed, the lowest index goes first.
//
// "before: L" places the node ahead of every other node answering to L;
// "after: L" places it behind them. A node's constraints on itself are
// ignored. Labels that match no node fail with DANGLING_LABEL; constraints
// that cannot all hold fail with CYCLE_DETECTED naming one cycle.
//
// The returned slice holds indexes into nodes. Errors leave Workload empty
// for the caller to fill in.
func Resolve(nodes []Node) ([]int, error) {
	g, err := buildGraph(nodes)
	if err != nil {
		return nil, err
	}

	indegree := make([]int, len(nodes))
	for _, succs := range g {
		for _, w := range succs {
			indegree[w]++
		}
	}

	ready := make([]int, 0, len(nodes))
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(nodes))
	for len(ready) > 0 {
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, w := range g[v] {
			indegree[w]--
			if indegree[w] == 0 {
				pos, _ := slices.BinarySearch(ready, w)
				ready = slices.Insert(ready, pos, w)
			}
		}
	}

	if len(order) < len(nodes) {
		return nil, cycleError(nodes, g)
	}
	return order, nil
}

// graph maps node index → successors, sorted and without duplicates.
type graph [][]int

func buildGraph(nodes []Node) (graph, error) {
	g := make(graph, len(nodes))
	dangling := label.New()

	// matching returns every node other than self answering to l.
	matching := func(self int, l label.Label) ([]int, bool) {
		var out []int
		found := false
		for j, n := range nodes {
			if n.Labels.Contains(l) {
				found = true
				if j != self {
					out = append(out, j)
				}
			}
		}
		return out, found
	}

	for i, n := range nodes {
		for l := range n.Before.All() {
			targets, found := matching(i, l)
			if !found {
				dangling.Add(l)
			}
			g[i] = append(g[i], targets...)
		}
		for l := range n.After.All() {
			sources, found := matching(i, l)
			if !found {
				dangling.Add(l)
			}
			for _, j := range sources {
				g[j] = append(g[j], i)
			}
		}
	}

	if !dangling.IsEmpty() {
		return nil, NewDanglingLabelError("", dangling.Strings())
	}

	for i := range g {
		slices.Sort(g[i])
		g[i] = slices.Compact(g[i])
	}
	return g, nil
}

// cycleError reports the strongly connected component holding the
// lowest-indexed node that could not be placed.
func cycleError(nodes []Node, g graph) error {
	var cycle []int
	for _, scc := range tarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		if cycle == nil || slices.Min(scc) < slices.Min(cycle) {
			cycle = scc
		}
	}

	slices.Sort(cycle)

	path := reconstructCyclePath(cycle, g)
	names := make([]string, len(path))
	for i, v := range path {
		names[i] = nodes[v].Name
	}
	return NewCycleError("", names, cycleLabels(nodes, cycle))
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting nodes in index order so the result is deterministic.
func tarjanSCC(g graph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(g))
		lowlink = make([]int, len(g))
		onStack = make([]bool, len(g))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := range g {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath returns the shortest cycle through the lowest-indexed
// member of scc, with that member repeated at the end.
func reconstructCyclePath(scc []int, g graph) []int {
	if len(scc) == 0 {
		return []int{}
	}
	inSCC := make(map[int]bool, len(scc))
	for _, v := range scc {
		inSCC[v] = true
	}
	start := slices.Min(scc)

	// Breadth-first search from start back to start within the component.
	prev := map[int]int{}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g[v] {
			if !inSCC[w] {
				continue
			}
			if w == start {
				path := []int{start}
				for u := v; u != start; u = prev[u] {
					path = append(path, u)
				}
				slices.Reverse(path)
				// path is now [first, ..., v, start]; put start in front.
				return append([]int{start}, append(path[:len(path)-1], start)...)
			}
			if _, seen := prev[w]; !seen {
				prev[w] = v
				queue = append(queue, w)
			}
		}
	}
	return []int{start, start}
}

// cycleLabels returns the before/after label text of cycle members that
// point at another member.
func cycleLabels(nodes []Node, cycle []int) []string {
	labels := label.New()
	for _, i := range cycle {
		for _, set := range []*label.Set{nodes[i].Before, nodes[i].After} {
			for l := range set.All() {
				for _, j := range cycle {
					if j != i && nodes[j].Labels.Contains(l) {
						labels.Add(l)
						break
					}
				}
			}
		}
	}
	return labels.Strings()
}
