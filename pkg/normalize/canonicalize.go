package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// exprHashDomain separates expression keys from any other hashing the
// surrounding system may do over the same bytes.
const exprHashDomain = "leapplan/expr/v1"

// redirects tracks reference redirection during canonicalization: a
// union-find over table entries for entry-to-entry unification, plus
// per-class resolution to an external reference for aliases of enclosing
// or named collections.
type redirects struct {
	parent []int
	ext    []*plan.Get
}

func newRedirects(n int) *redirects {
	rd := &redirects{
		parent: make([]int, n),
		ext:    make([]*plan.Get, n),
	}
	for i := range rd.parent {
		rd.parent[i] = i
	}
	return rd
}

func (rd *redirects) find(i int) int {
	for rd.parent[i] != i {
		rd.parent[i] = rd.parent[rd.parent[i]]
		i = rd.parent[i]
	}
	return i
}

// unite redirects child's class to rep's.
func (rd *redirects) unite(child, rep int) {
	c, r := rd.find(child), rd.find(rep)
	if c == r {
		return
	}
	rd.parent[c] = r
	if rd.ext[r] == nil {
		rd.ext[r] = rd.ext[c]
	}
}

// resolve follows the redirection of entry i. A non-nil Get means the
// class resolves to an external reference; otherwise the returned index
// is the representative entry.
func (rd *redirects) resolve(i int) (int, *plan.Get) {
	rep := rd.find(i)
	return rep, rd.ext[rep]
}

// inlineAliases removes bindings whose entire value is a single
// reference and redirects their uses to the target. Aliases of group
// members are folded the same way, which is what collapses a mutually
// referencing pair into a single self-referencing binding. A binding
// whose reference leads back to itself is left alone.
func (r *region) inlineAliases(rd *redirects) int {
	inlined := 0
	for _, idx := range r.live() {
		g, ok := r.entries[idx].value.(*plan.Get)
		if !ok {
			continue
		}
		if g.External() || r.externals[g.ID] {
			rd.ext[rd.find(idx)] = &plan.Get{ID: g.ID, Name: g.Name}
			r.entries[idx].removed = true
			inlined++
			continue
		}
		target, ok := r.index[g.ID]
		if !ok {
			// Bound inside a sub-region; not a table reference.
			continue
		}
		if rd.find(target) == rd.find(idx) {
			continue
		}
		rd.unite(idx, target)
		r.entries[idx].removed = true
		inlined++
	}
	return inlined
}

// dedupEntries unifies non-recursive entries whose canonicalized values
// share a structural key. References are resolved through rd before
// keying, so chains of unifications settle within one sweep. The earlier
// entry by discovery order wins.
func (r *region) dedupEntries(rd *redirects) int {
	byKey := make(map[[sha256.Size]byte]int)
	deduped := 0
	for _, idx := range r.live() {
		if r.entries[idx].recursive {
			continue
		}
		key := r.structuralKey(r.entries[idx].value, rd)
		if first, ok := byKey[key]; ok {
			rd.unite(idx, first)
			r.entries[idx].removed = true
			deduped++
			continue
		}
		byKey[key] = idx
	}
	return deduped
}

// applyRedirects rewrites every reference in live values and the body to
// its representative. Ids bound inside sub-region interiors are tracked
// so that an interior binding reusing a table id is left untouched.
func (r *region) applyRedirects(rd *redirects) {
	for _, idx := range r.live() {
		r.entries[idx].value = r.rewriteRefs(r.entries[idx].value, rd, map[plan.LocalID]bool{})
	}
	r.body = r.rewriteRefs(r.body, rd, map[plan.LocalID]bool{})
}

func (r *region) rewriteRefs(e plan.Expr, rd *redirects, bound map[plan.LocalID]bool) plan.Expr {
	switch n := e.(type) {
	case *plan.Get:
		if n.External() || bound[n.ID] {
			return n
		}
		idx, ok := r.index[n.ID]
		if !ok {
			return n
		}
		rep, ext := rd.resolve(idx)
		if ext != nil {
			return &plan.Get{ID: ext.ID, Name: ext.Name}
		}
		if rep != idx {
			return &plan.Get{ID: r.entries[rep].orig}
		}
		return n

	case *plan.Let:
		value := r.rewriteRefs(n.Value, rd, bound)
		bound[n.ID] = true
		body := r.rewriteRefs(n.Body, rd, bound)
		delete(bound, n.ID)
		return &plan.Let{ID: n.ID, Value: value, Body: body}

	case *plan.LetRec:
		for _, id := range n.IDs {
			bound[id] = true
		}
		values := make([]plan.Expr, len(n.Values))
		for i, v := range n.Values {
			values[i] = r.rewriteRefs(v, rd, bound)
		}
		body := r.rewriteRefs(n.Body, rd, bound)
		for _, id := range n.IDs {
			delete(bound, id)
		}
		return &plan.LetRec{IDs: append([]plan.LocalID(nil), n.IDs...), Values: values, Body: body}

	default:
		children := plan.Children(e)
		if len(children) == 0 {
			return e
		}
		out := make([]plan.Expr, len(children))
		for i, c := range children {
			out[i] = r.rewriteRefs(c, rd, bound)
		}
		return plan.WithChildren(e, out)
	}
}

// structuralKey computes a deterministic key of e with references
// rewritten to their canonical targets, so that bindings that become
// referentially identical key equal.
func (r *region) structuralKey(e plan.Expr, rd *redirects) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(exprHashDomain))
	h.Write([]byte{0})
	r.hashExpr(h, e, rd, map[plan.LocalID]bool{})
	var key [sha256.Size]byte
	copy(key[:], h.Sum(nil))
	return key
}

func (r *region) hashExpr(h hash.Hash, e plan.Expr, rd *redirects, bound map[plan.LocalID]bool) {
	switch n := e.(type) {
	case *plan.Constant:
		hashTag(h, 1)
		hashInt(h, int64(len(n.Rows)))
		for _, row := range n.Rows {
			hashInt(h, int64(len(row)))
			for _, v := range row {
				hashInt(h, v)
			}
		}
	case *plan.Get:
		switch {
		case n.External():
			hashTag(h, 2)
			hashString(h, n.Name)
		default:
			idx, ok := r.index[n.ID]
			if !ok || bound[n.ID] {
				// Enclosing binding or a sub-region interior id; key by
				// the id itself.
				hashTag(h, 3)
				hashInt(h, int64(n.ID))
				return
			}
			rep, ext := rd.resolve(idx)
			if ext != nil {
				r.hashExpr(h, ext, rd, bound)
				return
			}
			hashTag(h, 4)
			hashInt(h, int64(rep))
		}
	case *plan.Project:
		hashTag(h, 5)
		hashInt(h, int64(len(n.Columns)))
		for _, c := range n.Columns {
			hashInt(h, int64(c))
		}
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Map:
		hashTag(h, 6)
		hashInt(h, int64(len(n.Scalars)))
		for _, s := range n.Scalars {
			hashInt(h, s)
		}
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Filter:
		hashTag(h, 7)
		hashInt(h, int64(len(n.Predicates)))
		for _, p := range n.Predicates {
			hashInt(h, int64(p.Left))
			hashString(h, string(p.Op))
			if p.Right.IsCol {
				hashTag(h, 1)
				hashInt(h, int64(p.Right.Col))
			} else {
				hashTag(h, 0)
				hashInt(h, p.Right.Literal)
			}
		}
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Union:
		hashTag(h, 8)
		hashInt(h, int64(len(n.Inputs)))
		for _, in := range n.Inputs {
			r.hashExpr(h, in, rd, bound)
		}
	case *plan.Distinct:
		hashTag(h, 9)
		if n.GroupBy == nil {
			hashTag(h, 0)
		} else {
			hashTag(h, 1)
			hashInt(h, int64(len(n.GroupBy)))
			for _, c := range n.GroupBy {
				hashInt(h, int64(c))
			}
		}
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Negate:
		hashTag(h, 10)
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Threshold:
		hashTag(h, 11)
		r.hashExpr(h, n.Input, rd, bound)
	case *plan.Let:
		hashTag(h, 12)
		hashInt(h, int64(n.ID))
		r.hashExpr(h, n.Value, rd, bound)
		bound[n.ID] = true
		r.hashExpr(h, n.Body, rd, bound)
		delete(bound, n.ID)
	case *plan.LetRec:
		hashTag(h, 13)
		hashInt(h, int64(len(n.IDs)))
		for _, id := range n.IDs {
			hashInt(h, int64(id))
			bound[id] = true
		}
		for _, v := range n.Values {
			r.hashExpr(h, v, rd, bound)
		}
		r.hashExpr(h, n.Body, rd, bound)
		for _, id := range n.IDs {
			delete(bound, id)
		}
	case *plan.Opaque:
		hashTag(h, 14)
		hashString(h, n.Tag)
		hashString(h, n.Detail)
		hashInt(h, int64(len(n.Inputs)))
		for _, in := range n.Inputs {
			r.hashExpr(h, in, rd, bound)
		}
	}
}

func hashTag(h hash.Hash, tag byte) {
	h.Write([]byte{tag})
}

func hashInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

func hashString(h hash.Hash, s string) {
	hashInt(h, int64(len(s)))
	h.Write([]byte(s))
}
