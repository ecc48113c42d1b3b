// Package graph provides directed-graph analysis over dense integer ids:
// strongly connected components, condensation, deterministic topological
// ordering, and reachability. Nodes are 0..n-1; an edge u->v records that
// u references (depends on) v. Self-loops are permitted and significant.
package graph

import "fmt"

// Graph is a directed graph over dense integer node ids.
type Graph struct {
	succs [][]int
	preds [][]int
}

// New creates a graph with n nodes and no edges.
func New(n int) *Graph {
	return &Graph{
		succs: make([][]int, n),
		preds: make([][]int, n),
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.succs)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, s := range g.succs {
		count += len(s)
	}
	return count
}

// AddEdge adds the edge from->to, ignoring duplicates. Both ids must be
// in range; self-loops are allowed.
func (g *Graph) AddEdge(from, to int) {
	if from < 0 || from >= len(g.succs) || to < 0 || to >= len(g.succs) {
		panic(fmt.Sprintf("graph: edge %d->%d out of range [0,%d)", from, to, len(g.succs)))
	}
	if contains(g.succs[from], to) {
		return
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

// HasEdge reports whether the edge from->to exists.
func (g *Graph) HasEdge(from, to int) bool {
	return contains(g.succs[from], to)
}

// Succs returns the nodes that from references, in insertion order.
func (g *Graph) Succs(from int) []int {
	return g.succs[from]
}

// Preds returns the nodes that reference to, in insertion order.
func (g *Graph) Preds(to int) []int {
	return g.preds[to]
}

// Reachable returns, per node, whether it is reachable from any start
// node by following reference edges. Start nodes are themselves
// reachable.
func (g *Graph) Reachable(starts []int) []bool {
	seen := make([]bool, len(g.succs))
	stack := make([]int, 0, len(starts))
	for _, s := range starts {
		if !seen[s] {
			seen[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.succs[n] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

// SCCs computes the strongly connected components with Tarjan's
// algorithm. Members within a component are returned in ascending id
// order; the component order is deterministic for a given graph but
// otherwise unspecified (use Condense for a topological view).
func (g *Graph) SCCs() [][]int {
	n := len(g.succs)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		stack   []int
		counter int
		comps   [][]int
	)

	var strongConnect func(v int)
	strongConnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succs[v] {
			if index[w] == -1 {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
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
			sortInts(comp)
			comps = append(comps, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongConnect(v)
		}
	}
	return comps
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func sortInts(s []int) {
	// Insertion sort; component member lists are small.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
