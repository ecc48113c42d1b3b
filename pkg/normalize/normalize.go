// Package normalize canonicalizes the binding structure of a plan tree.
// It flattens nested scopes into a per-region binding table, derives the
// reference graph, groups bindings into recursive scopes by strongly
// connected component, removes dead bindings, unifies structurally equal
// ones, inlines aliases, and re-emits the tree with deterministic,
// contiguous ids. The rewrite runs to a fixpoint: removals can dissolve
// cycles and expose further unifications.
//
// The pass is purely structural. It never interprets operator semantics
// beyond the binding forms, and it preserves the least-fixpoint meaning
// of recursive scopes: a nested recursive group whose values observe an
// enclosing group member that is still converging keeps its own scope
// nested inside that definition.
package normalize

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapplan/pkg/plan"
)

// DefaultMaxIterations bounds the rewrite loop. The loop shrinks the
// binding table monotonically, so the bound is a guard against internal
// bugs rather than a tunable.
const DefaultMaxIterations = 64

// Options configures a normalization run.
type Options struct {
	// MaxIterations caps fixpoint iterations per region. Zero means
	// DefaultMaxIterations.
	MaxIterations int
	// Logger receives per-iteration debug records. Nil discards them.
	Logger *slog.Logger
}

// Stats describes what a run did.
type Stats struct {
	Iterations      int
	InputBindings   int
	OutputBindings  int
	Deduped         int
	AliasesInlined  int
	DeadRemoved     int
	Scopes          int
	RecursiveScopes int
}

// Result is a normalized plan with its run statistics.
type Result struct {
	Plan  plan.Expr
	Stats Stats
}

// Normalize rewrites e into canonical binding form. The input tree is
// not modified.
func Normalize(e plan.Expr) (plan.Expr, error) {
	res, err := NormalizeWithOptions(e, Options{})
	if err != nil {
		return nil, err
	}
	return res.Plan, nil
}

// NormalizeWithOptions is Normalize with explicit options and statistics.
func NormalizeWithOptions(e plan.Expr, opts Options) (*Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	p := &pass{opts: opts, logger: opts.Logger}

	root := plan.Copy(e)
	if err := validateScoping(root, map[plan.LocalID]bool{}); err != nil {
		return nil, fmt.Errorf("validating input: %w", err)
	}
	p.stats.InputBindings = countBindings(root)

	// Work on analyzer-assigned ids so the binding table can be keyed by
	// id even when disjoint branches of the input reuse one.
	root, err := uniquify(root)
	if err != nil {
		return nil, fmt.Errorf("validating input: %w", err)
	}

	out, _, err := p.normalizeRegion(root, map[plan.LocalID]bool{}, 0)
	if err != nil {
		return nil, err
	}
	out, err = renumber(out)
	if err != nil {
		return nil, fmt.Errorf("assigning final ids: %w", err)
	}

	p.stats.OutputBindings = countBindings(out)
	p.stats.Scopes, p.stats.RecursiveScopes = countScopes(out)
	p.logger.Debug("normalization converged",
		"iterations", p.stats.Iterations,
		"bindings_in", p.stats.InputBindings,
		"bindings_out", p.stats.OutputBindings,
		"deduped", p.stats.Deduped,
		"aliases_inlined", p.stats.AliasesInlined,
		"dead_removed", p.stats.DeadRemoved)
	return &Result{Plan: out, Stats: p.stats}, nil
}

// pass carries the mutable state of one top-level run.
type pass struct {
	opts   Options
	logger *slog.Logger
	stats  Stats
}

// normalizeRegion runs the rewrite loop on one region until the tree
// stops changing. The externals set holds ids bound by enclosing regions;
// they are visible but fixed. Reported changes propagate to the caller so
// enclosing regions re-flatten after a sub-region simplifies.
func (p *pass) normalizeRegion(root plan.Expr, externals map[plan.LocalID]bool, depth int) (plan.Expr, bool, error) {
	changedEver := false
	for iter := 0; ; iter++ {
		if iter >= p.opts.MaxIterations {
			return nil, false, fmt.Errorf("normalizing region at depth %d: %w", depth, ErrFixpointDiverged)
		}
		if depth == 0 {
			p.stats.Iterations = iter + 1
		}

		r, err := flattenRegion(root, externals)
		if err != nil {
			return nil, false, fmt.Errorf("flattening scopes: %w", err)
		}

		subExternals := subRegionExternals(r, externals)
		for _, idx := range r.live() {
			value, subChanged, err := p.normalizeSubRegions(r.entries[idx].value, subExternals, depth)
			if err != nil {
				return nil, false, err
			}
			r.entries[idx].value = value
			if subChanged {
				changedEver = true
			}
		}

		g, roots, err := r.buildRefGraph()
		if err != nil {
			return nil, false, fmt.Errorf("building reference graph: %w", err)
		}
		p.stats.DeadRemoved += r.removeDead(g, roots)
		r.classify(g)

		rd := newRedirects(len(r.entries))
		p.stats.AliasesInlined += r.inlineAliases(rd)
		p.stats.Deduped += r.dedupEntries(rd)
		r.applyRedirects(rd)

		// Redirections change the graph shape; derive it again for scope
		// placement.
		g, _, err = r.buildRefGraph()
		if err != nil {
			return nil, false, fmt.Errorf("building reference graph: %w", err)
		}
		chain := r.planScopes(g)
		rebuilt := r.rebuild(chain)

		if plan.Equal(rebuilt, root) {
			p.logger.Debug("region stable",
				"depth", depth, "iterations", iter+1, "bindings", len(r.live()))
			return rebuilt, changedEver, nil
		}
		changedEver = true
		root = rebuilt
	}
}

// normalizeSubRegions recursively normalizes the recursive groups left
// nested inside a value. Only the topmost group nodes are handled here;
// anything deeper belongs to the nested region itself.
func (p *pass) normalizeSubRegions(e plan.Expr, externals map[plan.LocalID]bool, depth int) (plan.Expr, bool, error) {
	if lr, ok := e.(*plan.LetRec); ok {
		return p.normalizeRegion(lr, externals, depth+1)
	}
	children := plan.Children(e)
	if len(children) == 0 {
		return e, false, nil
	}
	changed := false
	out := make([]plan.Expr, len(children))
	for i, c := range children {
		nc, subChanged, err := p.normalizeSubRegions(c, externals, depth)
		if err != nil {
			return nil, false, err
		}
		out[i] = nc
		if subChanged {
			changed = true
		}
	}
	if !changed {
		return e, false, nil
	}
	return plan.WithChildren(e, out), true, nil
}

func subRegionExternals(r *region, externals map[plan.LocalID]bool) map[plan.LocalID]bool {
	out := make(map[plan.LocalID]bool, len(externals)+len(r.entries))
	for id := range externals {
		out[id] = true
	}
	for _, b := range r.entries {
		out[b.orig] = true
	}
	return out
}

func countBindings(e plan.Expr) int {
	count := 0
	plan.Walk(e, func(x plan.Expr) bool {
		switch n := x.(type) {
		case *plan.Let:
			count++
		case *plan.LetRec:
			count += len(n.IDs)
		}
		return true
	})
	return count
}

func countScopes(e plan.Expr) (scopes, recursive int) {
	plan.Walk(e, func(x plan.Expr) bool {
		switch x.(type) {
		case *plan.Let:
			scopes++
		case *plan.LetRec:
			scopes++
			recursive++
		}
		return true
	})
	return scopes, recursive
}
