package normalize

import (
	"github.com/leapstack-labs/leapplan/pkg/graph"
	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// validateScoping checks the well-scopedness contract of an input tree:
// every local reference resolves to a binding visible at its position,
// with recursive-group members visible to each other's values, and no
// binding shadows another one visible at its site. Violations are
// upstream contract breaches and abort the run.
func validateScoping(e plan.Expr, visible map[plan.LocalID]bool) error {
	switch n := e.(type) {
	case *plan.Get:
		if !n.External() && !visible[n.ID] {
			return &ScopeError{Ref: n.ID, Context: "precedes its binding or resolves to no visible binding"}
		}
		return nil

	case *plan.Let:
		if visible[n.ID] {
			return &ScopeError{Ref: n.ID, Context: "shadows an enclosing binding"}
		}
		if err := validateScoping(n.Value, visible); err != nil {
			return err
		}
		visible[n.ID] = true
		err := validateScoping(n.Body, visible)
		delete(visible, n.ID)
		return err

	case *plan.LetRec:
		for _, id := range n.IDs {
			if visible[id] {
				return &ScopeError{Ref: id, Context: "shadows an enclosing binding"}
			}
			visible[id] = true
		}
		for _, v := range n.Values {
			if err := validateScoping(v, visible); err != nil {
				return err
			}
		}
		err := validateScoping(n.Body, visible)
		for _, id := range n.IDs {
			delete(visible, id)
		}
		return err

	default:
		for _, c := range plan.Children(e) {
			if err := validateScoping(c, visible); err != nil {
				return err
			}
		}
		return nil
	}
}

// buildRefGraph derives the reference graph over the region's live
// entries: one node per table entry, one edge per distinct referenced
// entry. References made inside a sub-region count as use-sites of the
// owning entry. It also returns the entry indices referenced by the
// region body, which root liveness. References that resolve neither to a
// table entry nor to an external binding are scoping violations.
func (r *region) buildRefGraph() (*graph.Graph, []int, error) {
	g := graph.New(len(r.entries))
	for _, idx := range r.live() {
		from := idx
		err := r.scanRefs(r.entries[idx].value, map[plan.LocalID]bool{}, func(to int) {
			g.AddEdge(from, to)
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var roots []int
	seen := make(map[int]bool)
	err := r.scanRefs(r.body, map[plan.LocalID]bool{}, func(to int) {
		if !seen[to] {
			seen[to] = true
			roots = append(roots, to)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return g, roots, nil
}

// scanRefs visits every reference to a table entry within e. The bound
// set tracks ids introduced by binding nodes inside e itself (sub-region
// interiors); those resolve locally and are skipped.
func (r *region) scanRefs(e plan.Expr, bound map[plan.LocalID]bool, visit func(int)) error {
	switch n := e.(type) {
	case *plan.Get:
		if n.External() || bound[n.ID] {
			return nil
		}
		if idx, ok := r.index[n.ID]; ok {
			visit(idx)
			return nil
		}
		if r.externals[n.ID] {
			return nil
		}
		return &ScopeError{Ref: n.ID, Context: "resolves to no visible binding"}

	case *plan.Let:
		if err := r.scanRefs(n.Value, bound, visit); err != nil {
			return err
		}
		bound[n.ID] = true
		err := r.scanRefs(n.Body, bound, visit)
		delete(bound, n.ID)
		return err

	case *plan.LetRec:
		for _, id := range n.IDs {
			bound[id] = true
		}
		for _, v := range n.Values {
			if err := r.scanRefs(v, bound, visit); err != nil {
				return err
			}
		}
		err := r.scanRefs(n.Body, bound, visit)
		for _, id := range n.IDs {
			delete(bound, id)
		}
		return err

	default:
		for _, c := range plan.Children(e) {
			if err := r.scanRefs(c, bound, visit); err != nil {
				return err
			}
		}
		return nil
	}
}

// removeDead removes entries unreachable from the body roots and returns
// how many were removed. Reachability either covers a whole cycle or
// misses it entirely, so a cycle member is only ever removed together
// with its component.
func (r *region) removeDead(g *graph.Graph, roots []int) int {
	reachable := g.Reachable(roots)
	removed := 0
	for _, idx := range r.live() {
		if !reachable[idx] {
			r.entries[idx].removed = true
			removed++
		}
	}
	return removed
}
