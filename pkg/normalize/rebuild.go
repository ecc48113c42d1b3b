package normalize

import (
	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// rebuild assembles the region tree: the body wrapped by the planned
// scope chain, last scope innermost.
func (r *region) rebuild(chain []scopeGroup) plan.Expr {
	e := r.body
	for i := len(chain) - 1; i >= 0; i-- {
		sg := chain[i]
		if !sg.recursive {
			m := sg.groups[0][0]
			e = &plan.Let{ID: r.entries[m].orig, Value: r.entries[m].value, Body: e}
			continue
		}
		var ids []plan.LocalID
		var values []plan.Expr
		for _, grp := range sg.groups {
			for _, m := range grp {
				ids = append(ids, r.entries[m].orig)
				values = append(values, r.entries[m].value)
			}
		}
		e = &plan.LetRec{IDs: ids, Values: values, Body: e}
	}
	return e
}

// uniquify rewrites every binding to a fresh id so that ids are unique
// across the whole tree. Input ids only need to be unambiguous within
// one visibility chain; sibling branches may legally reuse an id, and
// the flat binding table needs them distinct. The final renumbering
// discards these intermediate ids again.
func uniquify(e plan.Expr) (plan.Expr, error) {
	u := &uniquifier{env: make(map[plan.LocalID]plan.LocalID)}
	return u.rewrite(e)
}

type uniquifier struct {
	next plan.LocalID
	env  map[plan.LocalID]plan.LocalID
}

func (u *uniquifier) bind(old plan.LocalID) plan.LocalID {
	id := u.next
	u.next++
	u.env[old] = id
	return id
}

func (u *uniquifier) rewrite(e plan.Expr) (plan.Expr, error) {
	switch x := e.(type) {
	case *plan.Get:
		if x.External() {
			return x, nil
		}
		id, ok := u.env[x.ID]
		if !ok {
			return nil, &ScopeError{Ref: x.ID, Context: "resolves to no visible binding"}
		}
		return &plan.Get{ID: id}, nil

	case *plan.Let:
		value, err := u.rewrite(x.Value)
		if err != nil {
			return nil, err
		}
		id := u.bind(x.ID)
		body, err := u.rewrite(x.Body)
		if err != nil {
			return nil, err
		}
		delete(u.env, x.ID)
		return &plan.Let{ID: id, Value: value, Body: body}, nil

	case *plan.LetRec:
		ids := make([]plan.LocalID, len(x.IDs))
		for i, id := range x.IDs {
			ids[i] = u.bind(id)
		}
		values := make([]plan.Expr, len(x.Values))
		for i, v := range x.Values {
			value, err := u.rewrite(v)
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		body, err := u.rewrite(x.Body)
		if err != nil {
			return nil, err
		}
		for _, id := range x.IDs {
			delete(u.env, id)
		}
		return &plan.LetRec{IDs: ids, Values: values, Body: body}, nil

	default:
		children := plan.Children(e)
		if len(children) == 0 {
			return e, nil
		}
		out := make([]plan.Expr, len(children))
		for i, c := range children {
			rc, err := u.rewrite(c)
			if err != nil {
				return nil, err
			}
			out[i] = rc
		}
		return plan.WithChildren(e, out), nil
	}
}

// renumber assigns final contiguous ids starting at 0, in scope emission
// order: a binding's id is assigned before its value is walked, so outer
// scopes number before the sub-regions nested inside their values.
// Re-running the pass on its own output re-discovers bindings in id
// order, which makes renumbering the identity there.
func renumber(e plan.Expr) (plan.Expr, error) {
	n := &renumberer{mapping: make(map[plan.LocalID]plan.LocalID)}
	out, err := n.rewrite(e)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type renumberer struct {
	next    plan.LocalID
	mapping map[plan.LocalID]plan.LocalID
}

func (n *renumberer) assign(id plan.LocalID) plan.LocalID {
	final := n.next
	n.next++
	n.mapping[id] = final
	return final
}

func (n *renumberer) rewrite(e plan.Expr) (plan.Expr, error) {
	switch x := e.(type) {
	case *plan.Get:
		if x.External() {
			return x, nil
		}
		final, ok := n.mapping[x.ID]
		if !ok {
			return nil, &ScopeError{Ref: x.ID, Context: "escaped renumbering"}
		}
		return &plan.Get{ID: final}, nil

	case *plan.Let:
		id := n.assign(x.ID)
		value, err := n.rewrite(x.Value)
		if err != nil {
			return nil, err
		}
		body, err := n.rewrite(x.Body)
		if err != nil {
			return nil, err
		}
		return &plan.Let{ID: id, Value: value, Body: body}, nil

	case *plan.LetRec:
		ids := make([]plan.LocalID, len(x.IDs))
		for i, id := range x.IDs {
			ids[i] = n.assign(id)
		}
		values := make([]plan.Expr, len(x.Values))
		for i, v := range x.Values {
			value, err := n.rewrite(v)
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		body, err := n.rewrite(x.Body)
		if err != nil {
			return nil, err
		}
		return &plan.LetRec{IDs: ids, Values: values, Body: body}, nil

	default:
		children := plan.Children(e)
		if len(children) == 0 {
			return e, nil
		}
		out := make([]plan.Expr, len(children))
		for i, c := range children {
			rc, err := n.rewrite(c)
			if err != nil {
				return nil, err
			}
			out[i] = rc
		}
		return plan.WithChildren(e, out), nil
	}
}
