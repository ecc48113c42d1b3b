package normalize

import (
	"github.com/leapstack-labs/leapplan/pkg/graph"
)

// scopeGroup is one scope in the rebuilt chain. A non-recursive scope
// has a single group with a single member. A recursive scope lists one
// group per strongly connected component, in topological order, with the
// members of each group in discovery order.
type scopeGroup struct {
	recursive bool
	groups    [][]int
}

// classify marks entries that lie on a reference-graph cycle, including
// self-loops.
func (r *region) classify(g *graph.Graph) {
	c := g.Condense()
	for _, idx := range r.live() {
		r.entries[idx].recursive = c.Cyclic[c.Comp[idx]]
	}
}

// planScopes decides the scope chain for the region's live entries. The
// chain is flat: scopes follow the topological order of the component
// condensation, dependencies first. Mutually independent recursive
// components fuse into one shared recursive scope; a recursive component
// that depends on anything placed since that scope opened starts a new
// one, keeping dependent fixpoints sequential.
func (r *region) planScopes(g *graph.Graph) []scopeGroup {
	c := g.Condense()
	order := c.TopoOrder()

	var chain []scopeGroup

	// Open recursive scope, if any.
	bucketPos := -1    // insertion position in chain
	bucketOrder := -1  // placement counter when the scope opened
	var bucket [][]int // accumulated member groups

	placedOrder := make([]int, c.Count())
	for i := range placedOrder {
		placedOrder[i] = -1
	}
	placed := 0

	flush := func() {
		if bucketPos < 0 {
			return
		}
		sg := scopeGroup{recursive: true, groups: bucket}
		chain = append(chain[:bucketPos], append([]scopeGroup{sg}, chain[bucketPos:]...)...)
		bucketPos, bucketOrder, bucket = -1, -1, nil
	}

	canJoin := func(comp int) bool {
		if bucketPos < 0 {
			return false
		}
		for dep, ok := range c.ReachableFrom(comp) {
			if !ok || dep == comp {
				continue
			}
			if placedOrder[dep] >= bucketOrder {
				return false
			}
		}
		return true
	}

	for _, comp := range order {
		members := liveMembers(r, c.Members[comp])
		if len(members) == 0 {
			continue
		}
		if c.Cyclic[comp] {
			if canJoin(comp) {
				bucket = append(bucket, members)
			} else {
				flush()
				bucketPos = len(chain)
				bucketOrder = placed
				bucket = [][]int{members}
			}
		} else {
			chain = append(chain, scopeGroup{recursive: false, groups: [][]int{members}})
		}
		placedOrder[comp] = placed
		placed++
	}
	flush()
	return chain
}

func liveMembers(r *region, members []int) []int {
	out := make([]int, 0, len(members))
	for _, m := range members {
		if !r.entries[m].removed {
			out = append(out, m)
		}
	}
	return out
}
