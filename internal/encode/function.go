package encode

import (
	"github.com/pkg/errors"

	"boundedverify/internal/cfg"
	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
	"boundedverify/internal/phi"
	"boundedverify/internal/resolve"
	"boundedverify/internal/smt"
)

// Result is everything internal/verify's driver needs from a built
// formula: the formula itself, the name of the SMT variable standing for
// "no panic is reachable starting from the target function's entry block",
// and the resolver used to build it (so a counterexample model can be
// mapped back to the target's own parameter names for argument-name-
// preserving counterexamples).
type Result struct {
	Formula    *smt.Formula
	StartVar   string
	Resolver   *resolve.Resolver
	ParamNames []string
}

// BuildFormula runs the full pipeline — call inlining, phi elimination, CFG
// cycle detection, then per-block encoding — and returns a formula whose
// negated start variable is sat iff some feasible execution of fn panics.
func BuildFormula(mod *ir.Module, fn *ir.Function, sink diagnostics.Sink) (*Result, error) {
	expanded, err := ExpandCalls(mod, fn, sink)
	if err != nil {
		return nil, err
	}

	expanded = phi.Eliminate(expanded)

	graph := cfg.Extract(expanded, "", cfg.CommonEndNode, sink)
	if graph.Cyclic {
		return nil, &CyclicCFGError{Function: fn.Name}
	}

	r := resolve.New(fn.Name + "_")
	formula := &smt.Formula{}
	declared := map[string]bool{}

	for _, p := range fn.Params {
		if _, ok := p.Type.(ir.UnsupportedType); ok {
			sink.Warnf("parameter %s of %q has unsupported type %s; its value is left unconstrained", p.Name, fn.Name, p.Type)
		}
		declareValue(formula, r, declared, ir.Reg(p.Name, p.Type))
	}

	for _, b := range expanded.Blocks {
		if err := encodeBlock(formula, r, declared, b, sink); err != nil {
			return nil, errors.Wrapf(err, "function %q", fn.Name)
		}
	}

	var paramNames []string
	for _, p := range fn.Params {
		paramNames = append(paramNames, p.Name)
	}

	return &Result{
		Formula:    formula,
		StartVar:   blockVarName(r, expanded.Entry.Label),
		Resolver:   r,
		ParamNames: paramNames,
	}, nil
}
