package plan

import "fmt"

// Copy returns a deep copy of e sharing no mutable state with it.
func Copy(e Expr) Expr {
	switch n := e.(type) {
	case *Constant:
		rows := make([][]int64, len(n.Rows))
		for i, r := range n.Rows {
			rows[i] = append([]int64(nil), r...)
		}
		return &Constant{Rows: rows}
	case *Get:
		return &Get{ID: n.ID, Name: n.Name}
	case *Project:
		return &Project{Input: Copy(n.Input), Columns: append([]int(nil), n.Columns...)}
	case *Map:
		return &Map{Input: Copy(n.Input), Scalars: append([]int64(nil), n.Scalars...)}
	case *Filter:
		return &Filter{Input: Copy(n.Input), Predicates: append([]Predicate(nil), n.Predicates...)}
	case *Union:
		inputs := make([]Expr, len(n.Inputs))
		for i, in := range n.Inputs {
			inputs[i] = Copy(in)
		}
		return &Union{Inputs: inputs}
	case *Distinct:
		var groupBy []int
		if n.GroupBy != nil {
			groupBy = append([]int{}, n.GroupBy...)
		}
		return &Distinct{Input: Copy(n.Input), GroupBy: groupBy}
	case *Negate:
		return &Negate{Input: Copy(n.Input)}
	case *Threshold:
		return &Threshold{Input: Copy(n.Input)}
	case *Let:
		return &Let{ID: n.ID, Value: Copy(n.Value), Body: Copy(n.Body)}
	case *LetRec:
		values := make([]Expr, len(n.Values))
		for i, v := range n.Values {
			values[i] = Copy(v)
		}
		return &LetRec{IDs: append([]LocalID(nil), n.IDs...), Values: values, Body: Copy(n.Body)}
	case *Opaque:
		inputs := make([]Expr, len(n.Inputs))
		for i, in := range n.Inputs {
			inputs[i] = Copy(in)
		}
		return &Opaque{Tag: n.Tag, Detail: n.Detail, Inputs: inputs}
	}
	panic(fmt.Sprintf("plan: unknown expression %T", e))
}

// Equal reports whether a and b are structurally identical, including
// binding ids. A nil and an empty Distinct group key are distinct.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *Constant:
		y, ok := b.(*Constant)
		if !ok || len(x.Rows) != len(y.Rows) {
			return false
		}
		for i := range x.Rows {
			if !equalRow(x.Rows[i], y.Rows[i]) {
				return false
			}
		}
		return true
	case *Get:
		y, ok := b.(*Get)
		return ok && x.ID == y.ID && x.Name == y.Name
	case *Project:
		y, ok := b.(*Project)
		return ok && equalInts(x.Columns, y.Columns) && Equal(x.Input, y.Input)
	case *Map:
		y, ok := b.(*Map)
		return ok && equalRow(x.Scalars, y.Scalars) && Equal(x.Input, y.Input)
	case *Filter:
		y, ok := b.(*Filter)
		if !ok || len(x.Predicates) != len(y.Predicates) {
			return false
		}
		for i := range x.Predicates {
			if x.Predicates[i] != y.Predicates[i] {
				return false
			}
		}
		return Equal(x.Input, y.Input)
	case *Union:
		y, ok := b.(*Union)
		if !ok || len(x.Inputs) != len(y.Inputs) {
			return false
		}
		for i := range x.Inputs {
			if !Equal(x.Inputs[i], y.Inputs[i]) {
				return false
			}
		}
		return true
	case *Distinct:
		y, ok := b.(*Distinct)
		if !ok || (x.GroupBy == nil) != (y.GroupBy == nil) || !equalInts(x.GroupBy, y.GroupBy) {
			return false
		}
		return Equal(x.Input, y.Input)
	case *Negate:
		y, ok := b.(*Negate)
		return ok && Equal(x.Input, y.Input)
	case *Threshold:
		y, ok := b.(*Threshold)
		return ok && Equal(x.Input, y.Input)
	case *Let:
		y, ok := b.(*Let)
		return ok && x.ID == y.ID && Equal(x.Value, y.Value) && Equal(x.Body, y.Body)
	case *LetRec:
		y, ok := b.(*LetRec)
		if !ok || len(x.IDs) != len(y.IDs) {
			return false
		}
		for i := range x.IDs {
			if x.IDs[i] != y.IDs[i] {
				return false
			}
		}
		for i := range x.Values {
			if !Equal(x.Values[i], y.Values[i]) {
				return false
			}
		}
		return Equal(x.Body, y.Body)
	case *Opaque:
		y, ok := b.(*Opaque)
		if !ok || x.Tag != y.Tag || x.Detail != y.Detail || len(x.Inputs) != len(y.Inputs) {
			return false
		}
		for i := range x.Inputs {
			if !Equal(x.Inputs[i], y.Inputs[i]) {
				return false
			}
		}
		return true
	}
	panic(fmt.Sprintf("plan: unknown expression %T", a))
}

func equalRow(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
