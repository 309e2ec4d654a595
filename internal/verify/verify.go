// Package verify drives the encoder and solver to decide whether a target
// function can panic, reporting a counterexample when it can: load the
// module, build the formula, assert the negation of the start predicate,
// and ask the solver. BuildFormula's Result already carries the start
// variable's name, so this package only has to add the negation and
// dispatch to a smt.Solver.
package verify

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/encode"
	verrors "boundedverify/internal/errors"
	"boundedverify/internal/ir"
	"boundedverify/internal/smt"
)

// Verdict is the three-valued outcome a verification run produces.
type Verdict int

const (
	Safe Verdict = iota
	Unsafe
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}

// Counterexample maps a target function's own parameter names (without the
// leading '%') to the
// witness values a sat result assigned them, so reports stay
// argument-name-preserving rather than echoing internal SMT variable names.
type Counterexample map[string]smt.ModelValue

// Report is the full outcome of one RunTarget call.
type Report struct {
	Verdict Verdict
	Reason  string // populated for Unknown (cyclic CFG, recursion, missing target, solver gave up)
	Code    string // the internal/errors code Reason was classified under, empty for Safe/Unsafe
	Witness Counterexample
}

// RunTarget verifies the function in mod whose name matches targetPrefix,
// matched by prefix against a user-supplied target.
func RunTarget(ctx context.Context, mod *ir.Module, targetPrefix string, solver smt.Solver, sink diagnostics.Sink) (*Report, error) {
	return RunTargetCached(ctx, mod, targetPrefix, solver, sink, nil)
}

// RunTargetCached is RunTarget with an optional result cache consulted (and
// populated) by the hash of the asserted formula's SMT-LIB2 script.
func RunTargetCached(ctx context.Context, mod *ir.Module, targetPrefix string, solver smt.Solver, sink diagnostics.Sink, cache *Cache) (*Report, error) {
	fn := mod.FunctionByPrefix(targetPrefix)
	if fn == nil {
		return &Report{
			Verdict: Unknown,
			Reason:  "no function matches target prefix " + targetPrefix,
			Code:    verrors.ErrorMissingTarget,
		}, nil
	}

	result, err := encode.BuildFormula(mod, fn, sink)
	if err != nil {
		switch err.(type) {
		case *encode.CyclicCFGError:
			return &Report{Verdict: Unknown, Reason: err.Error(), Code: verrors.ErrorCyclicCFG}, nil
		case *encode.RecursiveCallError:
			return &Report{Verdict: Unknown, Reason: err.Error(), Code: verrors.ErrorRecursiveCall}, nil
		case *encode.UnsupportedWidthError:
			return &Report{Verdict: Unknown, Reason: err.Error(), Code: verrors.ErrorUnsupportedType}, nil
		default:
			return nil, errors.Wrapf(err, "encoding %q", fn.Name)
		}
	}

	formula := result.Formula
	formula.Assert(smt.Not(smt.Var(result.StartVar)))

	var cacheKey [32]byte
	if cache != nil {
		cacheKey = HashScript(formula.ToSMTLIB2())
		if cached, ok := cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	status, model, err := solver.CheckSat(ctx, formula)
	if err != nil {
		return nil, errors.Wrap(err, "checking satisfiability")
	}

	var report *Report
	switch status {
	case smt.Unsat:
		report = &Report{Verdict: Safe}
	case smt.Unknown:
		report = &Report{Verdict: Unknown, Reason: "solver returned unknown", Code: verrors.ErrorSolverUnknown}
	case smt.Sat:
		witness := Counterexample{}
		for _, p := range fn.Params {
			name := result.Resolver.Name(namedValue(p))
			if v, ok := model[name]; ok {
				witness[strings.TrimPrefix(p.Name, "%")] = v
			}
		}
		report = &Report{Verdict: Unsafe, Witness: witness}
	default:
		report = &Report{Verdict: Unknown, Reason: "unrecognized solver status", Code: verrors.ErrorSolverUnknown}
	}

	if cache != nil {
		cache.Put(cacheKey, report)
	}
	return report, nil
}

func namedValue(p *ir.Parameter) *ir.Value {
	return ir.Reg(p.Name, p.Type)
}
