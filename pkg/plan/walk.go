package plan

import "fmt"

// Children returns the direct subexpressions of e in a fixed order. For
// Let the order is value then body; for LetRec all values in group order
// then body. The result is a fresh slice; the nodes are shared.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Constant, *Get:
		return nil
	case *Project:
		return []Expr{n.Input}
	case *Map:
		return []Expr{n.Input}
	case *Filter:
		return []Expr{n.Input}
	case *Union:
		out := make([]Expr, len(n.Inputs))
		copy(out, n.Inputs)
		return out
	case *Distinct:
		return []Expr{n.Input}
	case *Negate:
		return []Expr{n.Input}
	case *Threshold:
		return []Expr{n.Input}
	case *Let:
		return []Expr{n.Value, n.Body}
	case *LetRec:
		out := make([]Expr, 0, len(n.Values)+1)
		out = append(out, n.Values...)
		return append(out, n.Body)
	case *Opaque:
		out := make([]Expr, len(n.Inputs))
		copy(out, n.Inputs)
		return out
	}
	panic(fmt.Sprintf("plan: unknown expression %T", e))
}

// WithChildren returns a copy of e with its subexpressions replaced by
// children, which must have the length Children(e) returned. Non-child
// fields are shared with e.
func WithChildren(e Expr, children []Expr) Expr {
	if want := len(Children(e)); len(children) != want {
		panic(fmt.Sprintf("plan: WithChildren on %T: got %d children, want %d", e, len(children), want))
	}
	switch n := e.(type) {
	case *Constant:
		return &Constant{Rows: n.Rows}
	case *Get:
		return &Get{ID: n.ID, Name: n.Name}
	case *Project:
		return &Project{Input: children[0], Columns: n.Columns}
	case *Map:
		return &Map{Input: children[0], Scalars: n.Scalars}
	case *Filter:
		return &Filter{Input: children[0], Predicates: n.Predicates}
	case *Union:
		inputs := make([]Expr, len(children))
		copy(inputs, children)
		return &Union{Inputs: inputs}
	case *Distinct:
		return &Distinct{Input: children[0], GroupBy: n.GroupBy}
	case *Negate:
		return &Negate{Input: children[0]}
	case *Threshold:
		return &Threshold{Input: children[0]}
	case *Let:
		return &Let{ID: n.ID, Value: children[0], Body: children[1]}
	case *LetRec:
		values := make([]Expr, len(n.Values))
		copy(values, children[:len(n.Values)])
		ids := make([]LocalID, len(n.IDs))
		copy(ids, n.IDs)
		return &LetRec{IDs: ids, Values: values, Body: children[len(n.Values)]}
	case *Opaque:
		inputs := make([]Expr, len(children))
		copy(inputs, children)
		return &Opaque{Tag: n.Tag, Detail: n.Detail, Inputs: inputs}
	}
	panic(fmt.Sprintf("plan: unknown expression %T", e))
}

// Walk invokes fn on e and then on every descendant in pre-order.
// Returning false skips the node's subexpressions.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}
