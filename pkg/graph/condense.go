package graph

// Condensation is the quotient of a graph by its strongly connected
// components. Component edges keep the input direction: component A has
// an edge to component B when any member of A references any member of
// B. The condensation is acyclic; intra-component edges (including
// self-loops) are dropped and remembered per component instead.
type Condensation struct {
	// Comp maps a node id to its component index.
	Comp []int
	// Members lists each component's node ids in ascending order.
	Members [][]int
	// Cyclic marks components that contain a cycle: more than one
	// member, or a single member with a self-loop.
	Cyclic []bool

	dag *Graph
}

// Condense computes the condensation of g.
func (g *Graph) Condense() *Condensation {
	comps := g.SCCs()
	c := &Condensation{
		Comp:    make([]int, g.NodeCount()),
		Members: comps,
		Cyclic:  make([]bool, len(comps)),
		dag:     New(len(comps)),
	}
	for i, members := range comps {
		for _, m := range members {
			c.Comp[m] = i
		}
		c.Cyclic[i] = len(members) > 1 || g.HasEdge(members[0], members[0])
	}
	for from := 0; from < g.NodeCount(); from++ {
		for _, to := range g.Succs(from) {
			cf, ct := c.Comp[from], c.Comp[to]
			if cf != ct {
				c.dag.AddEdge(cf, ct)
			}
		}
	}
	return c
}

// Count returns the number of components.
func (c *Condensation) Count() int {
	return len(c.Members)
}

// Succs returns the components that comp references.
func (c *Condensation) Succs(comp int) []int {
	return c.dag.Succs(comp)
}

// Preds returns the components that reference comp.
func (c *Condensation) Preds(comp int) []int {
	return c.dag.Preds(comp)
}

// DependsOn reports whether component a references component b directly.
func (c *Condensation) DependsOn(a, b int) bool {
	return c.dag.HasEdge(a, b)
}

// ReachableFrom returns, per component, whether it is reachable from
// start by following reference edges (start included).
func (c *Condensation) ReachableFrom(start int) []bool {
	return c.dag.Reachable([]int{start})
}

// TopoOrder returns the components ordered so that every referenced
// component appears before each of its referrers. Ties are broken by the
// smallest member id, which makes the order deterministic and aligned
// with first-discovery order of the underlying nodes.
func (c *Condensation) TopoOrder() []int {
	n := c.Count()
	pending := make([]int, n)
	for comp := 0; comp < n; comp++ {
		pending[comp] = len(c.dag.Succs(comp))
	}

	emitted := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		pick := -1
		for comp := 0; comp < n; comp++ {
			if emitted[comp] || pending[comp] > 0 {
				continue
			}
			if pick == -1 || c.Members[comp][0] < c.Members[pick][0] {
				pick = comp
			}
		}
		if pick == -1 {
			// Unreachable: the condensation is acyclic by construction.
			panic("graph: condensation contains a cycle")
		}
		emitted[pick] = true
		order = append(order, pick)
		for _, p := range c.dag.Preds(pick) {
			pending[p]--
		}
	}
	return order
}
