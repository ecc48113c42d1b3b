// Package format renders plan expression trees in the textual plan
// format understood by pkg/parser. A plain operator tree prints as an
// indented block, two spaces per level. A tree that opens bindings
// prints as a scoped document: the body under a Return preamble, then
// one With block per scope, innermost scope first.
package format

import "github.com/leapstack-labs/leapplan/pkg/plan"

// Render formats an expression tree as plan text. The result always
// ends with exactly one trailing newline.
func Render(e plan.Expr) string {
	p := newPrinter()
	p.formatScoped(e)
	return p.String()
}
