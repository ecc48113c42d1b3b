package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

type cteEntry struct {
	id    plan.LocalID
	value plan.Expr
}

type scopeBlock struct {
	recursive bool
	entries   []cteEntry
}

// formatScoped renders an expression that may open bindings. The chain
// body prints under a Return preamble; each scope becomes one With
// block, innermost first, with entries in descending id order.
func (p *Printer) formatScoped(e plan.Expr) {
	chain, body := splitChain(e)
	if len(chain) == 0 {
		p.formatExpr(body)
		return
	}
	p.write("Return")
	p.writeln()
	p.indent()
	p.formatExpr(body)
	p.dedent()
	for _, blk := range scopeBlocks(chain) {
		if blk.recursive {
			p.write("With Mutually Recursive")
		} else {
			p.write("With")
		}
		p.writeln()
		p.indent()
		for _, ent := range blk.entries {
			p.write(fmt.Sprintf("cte l%d =", ent.id))
			p.writeln()
			p.indent()
			p.formatScoped(ent.value)
			p.dedent()
		}
		p.dedent()
	}
}

// splitChain peels the Let and LetRec nodes off the root of e, outermost
// first, and returns them with the chain body.
func splitChain(e plan.Expr) ([]plan.Expr, plan.Expr) {
	var chain []plan.Expr
	for {
		switch n := e.(type) {
		case *plan.Let:
			chain = append(chain, n)
			e = n.Body
		case *plan.LetRec:
			chain = append(chain, n)
			e = n.Body
		default:
			return chain, e
		}
	}
}

// scopeBlocks groups a binding chain into printable blocks, innermost
// scope first. Consecutive Lets coalesce into a single With block; each
// LetRec is its own With Mutually Recursive block.
func scopeBlocks(chain []plan.Expr) []scopeBlock {
	var blocks []scopeBlock
	i := len(chain) - 1
	for i >= 0 {
		if rec, ok := chain[i].(*plan.LetRec); ok {
			blk := scopeBlock{recursive: true}
			for j := len(rec.IDs) - 1; j >= 0; j-- {
				blk.entries = append(blk.entries, cteEntry{id: rec.IDs[j], value: rec.Values[j]})
			}
			blocks = append(blocks, blk)
			i--
			continue
		}
		var blk scopeBlock
		for i >= 0 {
			let, ok := chain[i].(*plan.Let)
			if !ok {
				break
			}
			blk.entries = append(blk.entries, cteEntry{id: let.ID, value: let.Value})
			i--
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

func (p *Printer) formatExpr(e plan.Expr) {
	switch n := e.(type) {
	case *plan.Constant:
		if len(n.Rows) == 0 {
			p.write("Constant <empty>")
			p.writeln()
			return
		}
		p.write("Constant")
		p.writeln()
		p.indent()
		for _, r := range n.Rows {
			p.write("- " + tuple(r))
			p.writeln()
		}
		p.dedent()
	case *plan.Get:
		if n.External() {
			p.write("Get " + n.Name)
		} else {
			p.write(fmt.Sprintf("Get l%d", n.ID))
		}
		p.writeln()
	case *plan.Project:
		p.write("Project " + columns(n.Columns))
		p.writeln()
		p.child(n.Input)
	case *plan.Map:
		p.write("Map " + tuple(n.Scalars))
		p.writeln()
		p.child(n.Input)
	case *plan.Filter:
		if len(n.Predicates) == 0 {
			p.write("Filter")
		} else {
			parts := make([]string, len(n.Predicates))
			for i, pred := range n.Predicates {
				parts[i] = predicate(pred)
			}
			p.write("Filter " + strings.Join(parts, " AND "))
		}
		p.writeln()
		p.child(n.Input)
	case *plan.Union:
		p.write("Union")
		p.writeln()
		p.indent()
		for _, in := range n.Inputs {
			p.formatScoped(in)
		}
		p.dedent()
	case *plan.Distinct:
		if n.GroupBy == nil {
			p.write("Distinct")
		} else {
			p.write("Distinct group_by=" + columns(n.GroupBy))
		}
		p.writeln()
		p.child(n.Input)
	case *plan.Negate:
		p.write("Negate")
		p.writeln()
		p.child(n.Input)
	case *plan.Threshold:
		p.write("Threshold")
		p.writeln()
		p.child(n.Input)
	case *plan.Opaque:
		if n.Detail != "" {
			p.write(n.Tag + " " + n.Detail)
		} else {
			p.write(n.Tag)
		}
		p.writeln()
		p.indent()
		for _, in := range n.Inputs {
			p.formatScoped(in)
		}
		p.dedent()
	case *plan.Let, *plan.LetRec:
		p.formatScoped(e)
	default:
		panic(fmt.Sprintf("format: unknown expression %T", e))
	}
}

func (p *Printer) child(e plan.Expr) {
	p.indent()
	p.formatScoped(e)
	p.dedent()
}

func tuple(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func columns(cols []int) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = "#" + strconv.Itoa(c)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func predicate(pred plan.Predicate) string {
	var right string
	if pred.Right.IsCol {
		right = "#" + strconv.Itoa(pred.Right.Col)
	} else {
		right = strconv.FormatInt(pred.Right.Literal, 10)
	}
	return fmt.Sprintf("(#%d %s %s)", pred.Left, pred.Op, right)
}
