package normalize

import (
	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// binding is one entry in a region's flat binding table.
type binding struct {
	orig  plan.LocalID
	value plan.Expr
	// depth is the number of enclosing binding values at the discovery
	// site, recording the original lexical containment.
	depth int
	// recursive is set by scope analysis when the entry lies on a
	// reference-graph cycle.
	recursive bool
	removed   bool
}

// region holds the per-run state for one normalization region: the flat
// binding table, the body skeleton with binding nodes stripped, and the
// ids of enclosing bindings that are visible but fixed.
type region struct {
	entries   []*binding
	index     map[plan.LocalID]int
	body      plan.Expr
	externals map[plan.LocalID]bool
	// tainted holds ids of collected bindings whose values transitively
	// observe a group member that is still being defined. A reference to
	// a tainted binding pins the referrer to the converging definition
	// the same way a direct member reference does. Entries are only ever
	// visible inside the value that produced them, so the set never
	// needs clearing.
	tainted map[plan.LocalID]bool
}

// flattenRegion collects every binding of the tree into an ordered table,
// in pre-order discovery. Recursive groups whose member values reference
// an enclosing group member that is still being defined keep their own
// fixpoint: they stay in place as sub-regions and are not collected.
func flattenRegion(root plan.Expr, externals map[plan.LocalID]bool) (*region, error) {
	r := &region{
		index:     make(map[plan.LocalID]int),
		externals: externals,
		tainted:   make(map[plan.LocalID]bool),
	}
	body, err := r.flatten(root, nil, 0)
	if err != nil {
		return nil, err
	}
	r.body = body
	return r, nil
}

func (r *region) flatten(e plan.Expr, underDef map[plan.LocalID]bool, depth int) (plan.Expr, error) {
	switch n := e.(type) {
	case *plan.Let:
		idx, err := r.add(n.ID, depth)
		if err != nil {
			return nil, err
		}
		value, err := r.flatten(n.Value, underDef, depth+1)
		if err != nil {
			return nil, err
		}
		r.entries[idx].value = value
		if r.observes([]plan.Expr{value}, underDef) {
			r.tainted[n.ID] = true
		}
		return r.flatten(n.Body, underDef, depth)

	case *plan.LetRec:
		if r.observes(n.Values, underDef) {
			// The group's values observe an enclosing definition that is
			// still converging. Its fixpoint must stay nested inside that
			// definition, so the node is left for sub-region treatment.
			return n, nil
		}
		indices := make([]int, len(n.IDs))
		for i, id := range n.IDs {
			idx, err := r.add(id, depth)
			if err != nil {
				return nil, err
			}
			indices[i] = idx
		}
		inner := make(map[plan.LocalID]bool, len(underDef)+len(n.IDs))
		for id := range underDef {
			inner[id] = true
		}
		for _, id := range n.IDs {
			inner[id] = true
		}
		for i, v := range n.Values {
			value, err := r.flatten(v, inner, depth+1)
			if err != nil {
				return nil, err
			}
			r.entries[indices[i]].value = value
		}
		return r.flatten(n.Body, underDef, depth)

	default:
		children := plan.Children(e)
		if len(children) == 0 {
			return e, nil
		}
		out := make([]plan.Expr, len(children))
		for i, c := range children {
			fc, err := r.flatten(c, underDef, depth)
			if err != nil {
				return nil, err
			}
			out[i] = fc
		}
		return plan.WithChildren(e, out), nil
	}
}

func (r *region) add(id plan.LocalID, depth int) (int, error) {
	if _, dup := r.index[id]; dup {
		return 0, &ScopeError{Ref: id, Context: "is bound more than once in one region"}
	}
	idx := len(r.entries)
	r.entries = append(r.entries, &binding{orig: id, depth: depth})
	r.index[id] = idx
	return idx, nil
}

// live returns the indices of entries not yet removed, in discovery order.
func (r *region) live() []int {
	out := make([]int, 0, len(r.entries))
	for i, b := range r.entries {
		if !b.removed {
			out = append(out, i)
		}
	}
	return out
}

// observes reports whether any of the subtrees references an id that is
// under definition, directly or through a tainted binding.
func (r *region) observes(exprs []plan.Expr, underDef map[plan.LocalID]bool) bool {
	if len(underDef) == 0 && len(r.tainted) == 0 {
		return false
	}
	found := false
	for _, e := range exprs {
		plan.Walk(e, func(x plan.Expr) bool {
			if g, ok := x.(*plan.Get); ok && !g.External() && (underDef[g.ID] || r.tainted[g.ID]) {
				found = true
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}
