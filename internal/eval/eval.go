// Package eval is a reference interpreter for plan expressions over
// finite datasets. Collections are multisets with signed
// multiplicities; recursive scopes iterate their members in order until
// every member is unchanged for a full round, which on monotone
// operator bodies is the least fixpoint. It exists as the semantic
// oracle for normalization tests and the eval CLI command, not as an
// execution engine.
package eval

import (
	"fmt"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// Dataset supplies rows for external collections by name.
type Dataset map[string][][]int64

// DefaultMaxRounds bounds recursive-scope iteration.
const DefaultMaxRounds = 1000

// Options configures evaluation.
type Options struct {
	// MaxRounds bounds the iteration of one recursive scope. Zero means
	// DefaultMaxRounds.
	MaxRounds int
}

// Evaluate runs e against data with default options.
func Evaluate(e plan.Expr, data Dataset) (*Multiset, error) {
	return EvaluateWithOptions(e, data, Options{})
}

// EvaluateWithOptions runs e against data.
func EvaluateWithOptions(e plan.Expr, data Dataset, opts Options) (*Multiset, error) {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	ev := &evaluator{
		data:      data,
		env:       make(map[plan.LocalID]*Multiset),
		maxRounds: maxRounds,
	}
	return ev.eval(e)
}

type evaluator struct {
	data      Dataset
	env       map[plan.LocalID]*Multiset
	maxRounds int
}

func (ev *evaluator) eval(e plan.Expr) (*Multiset, error) {
	switch n := e.(type) {
	case *plan.Constant:
		out := NewMultiset()
		for _, r := range n.Rows {
			out.Add(r, 1)
		}
		return out, nil

	case *plan.Get:
		if n.External() {
			rows, ok := ev.data[n.Name]
			if !ok {
				return nil, &Error{Op: "Get", Message: fmt.Sprintf("no dataset for collection %q", n.Name)}
			}
			out := NewMultiset()
			for _, r := range rows {
				out.Add(r, 1)
			}
			return out, nil
		}
		m, ok := ev.env[n.ID]
		if !ok {
			return nil, &Error{Op: "Get", Message: fmt.Sprintf("reference l%d resolves to no visible binding", n.ID)}
		}
		return m, nil

	case *plan.Project:
		return ev.evalProject(n)

	case *plan.Map:
		return ev.evalMap(n)

	case *plan.Filter:
		return ev.evalFilter(n)

	case *plan.Union:
		out := NewMultiset()
		for _, in := range n.Inputs {
			m, err := ev.eval(in)
			if err != nil {
				return nil, err
			}
			for k, cnt := range m.mult {
				out.Add(m.rows[k], cnt)
			}
		}
		return out, nil

	case *plan.Distinct:
		return ev.evalDistinct(n)

	case *plan.Negate:
		in, err := ev.eval(n.Input)
		if err != nil {
			return nil, err
		}
		out := NewMultiset()
		for k, cnt := range in.mult {
			out.Add(in.rows[k], -cnt)
		}
		return out, nil

	case *plan.Threshold:
		in, err := ev.eval(n.Input)
		if err != nil {
			return nil, err
		}
		out := NewMultiset()
		for k, cnt := range in.mult {
			if cnt > 0 {
				out.Add(in.rows[k], cnt)
			}
		}
		return out, nil

	case *plan.Let:
		return ev.evalLet(n)

	case *plan.LetRec:
		return ev.evalLetRec(n)

	case *plan.Opaque:
		return nil, &Error{Op: n.Tag, Message: "cannot evaluate opaque operator"}

	default:
		panic(fmt.Sprintf("eval: unknown expression %T", e))
	}
}

func (ev *evaluator) evalProject(n *plan.Project) (*Multiset, error) {
	in, err := ev.eval(n.Input)
	if err != nil {
		return nil, err
	}
	out := NewMultiset()
	for k, cnt := range in.mult {
		row := in.rows[k]
		nr := make([]int64, len(n.Columns))
		for i, c := range n.Columns {
			if c < 0 || c >= len(row) {
				return nil, &Error{Op: "Project", Message: fmt.Sprintf("column #%d out of range for row of width %d", c, len(row))}
			}
			nr[i] = row[c]
		}
		out.Add(nr, cnt)
	}
	return out, nil
}

func (ev *evaluator) evalMap(n *plan.Map) (*Multiset, error) {
	in, err := ev.eval(n.Input)
	if err != nil {
		return nil, err
	}
	out := NewMultiset()
	for k, cnt := range in.mult {
		row := in.rows[k]
		nr := make([]int64, 0, len(row)+len(n.Scalars))
		nr = append(nr, row...)
		nr = append(nr, n.Scalars...)
		out.Add(nr, cnt)
	}
	return out, nil
}

func (ev *evaluator) evalFilter(n *plan.Filter) (*Multiset, error) {
	in, err := ev.eval(n.Input)
	if err != nil {
		return nil, err
	}
	out := NewMultiset()
	for k, cnt := range in.mult {
		row := in.rows[k]
		keep, err := matches(row, n.Predicates)
		if err != nil {
			return nil, err
		}
		if keep {
			out.Add(row, cnt)
		}
	}
	return out, nil
}

func matches(row []int64, preds []plan.Predicate) (bool, error) {
	for _, p := range preds {
		if p.Left < 0 || p.Left >= len(row) {
			return false, &Error{Op: "Filter", Message: fmt.Sprintf("column #%d out of range for row of width %d", p.Left, len(row))}
		}
		left := row[p.Left]

		var right int64
		if p.Right.IsCol {
			if p.Right.Col < 0 || p.Right.Col >= len(row) {
				return false, &Error{Op: "Filter", Message: fmt.Sprintf("column #%d out of range for row of width %d", p.Right.Col, len(row))}
			}
			right = row[p.Right.Col]
		} else {
			right = p.Right.Literal
		}

		ok := false
		switch p.Op {
		case plan.CmpEq:
			ok = left == right
		case plan.CmpNe:
			ok = left != right
		case plan.CmpLt:
			ok = left < right
		case plan.CmpLe:
			ok = left <= right
		case plan.CmpGt:
			ok = left > right
		case plan.CmpGe:
			ok = left >= right
		default:
			return false, &Error{Op: "Filter", Message: fmt.Sprintf("unknown comparison %q", string(p.Op))}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalDistinct keeps one copy of every row with positive multiplicity,
// projecting to the group-by columns first when present.
func (ev *evaluator) evalDistinct(n *plan.Distinct) (*Multiset, error) {
	in, err := ev.eval(n.Input)
	if err != nil {
		return nil, err
	}
	out := NewMultiset()
	for k, cnt := range in.mult {
		if cnt <= 0 {
			continue
		}
		row := in.rows[k]
		if n.GroupBy != nil {
			pr := make([]int64, len(n.GroupBy))
			for i, c := range n.GroupBy {
				if c < 0 || c >= len(row) {
					return nil, &Error{Op: "Distinct", Message: fmt.Sprintf("column #%d out of range for row of width %d", c, len(row))}
				}
				pr[i] = row[c]
			}
			row = pr
		}
		if out.Count(row) == 0 {
			out.Add(row, 1)
		}
	}
	return out, nil
}

func (ev *evaluator) evalLet(n *plan.Let) (*Multiset, error) {
	if _, ok := ev.env[n.ID]; ok {
		return nil, &Error{Op: "Let", Message: fmt.Sprintf("binding l%d shadows an enclosing binding", n.ID)}
	}
	val, err := ev.eval(n.Value)
	if err != nil {
		return nil, err
	}
	ev.env[n.ID] = val
	defer delete(ev.env, n.ID)
	return ev.eval(n.Body)
}

// evalLetRec iterates the member values in order, each round reading
// the latest state of every member, until a full round changes nothing.
func (ev *evaluator) evalLetRec(n *plan.LetRec) (*Multiset, error) {
	for _, id := range n.IDs {
		if _, ok := ev.env[id]; ok {
			return nil, &Error{Op: "LetRec", Message: fmt.Sprintf("binding l%d shadows an enclosing binding", id)}
		}
		ev.env[id] = NewMultiset()
	}
	defer func() {
		for _, id := range n.IDs {
			delete(ev.env, id)
		}
	}()

	for round := 0; ; round++ {
		if round >= ev.maxRounds {
			return nil, &Error{Op: "LetRec", Message: fmt.Sprintf("no fixpoint after %d rounds", ev.maxRounds)}
		}
		changed := false
		for i, id := range n.IDs {
			next, err := ev.eval(n.Values[i])
			if err != nil {
				return nil, err
			}
			if !next.Equal(ev.env[id]) {
				changed = true
			}
			ev.env[id] = next
		}
		if !changed {
			break
		}
	}
	return ev.eval(n.Body)
}
