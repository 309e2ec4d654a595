package smt

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// MemSolver is a small in-process decision procedure, good enough to
// discharge the bounded, loop-free, straight-line formulas this verifier
// actually produces: a conjunction of implications over named boolean block
// predicates plus linear integer comparisons over a handful of
// bit-width-bounded variables. It exists so internal/verify's tests don't
// need a solver binary on the machine running them; it is not a general
// SMT solver and reports Unknown rather than guessing when it meets a
// variable whose domain it cannot bound.
//
// An integer variable's own declared domain (e.g. the full i32 range) is
// almost always too large to enumerate directly. Every assertion this
// verifier ever produces is a linear comparison or equality against another
// variable or a literal, with any multiplication restricted to a compile-time
// constant coefficient (checked-multiplication's second operand) — so
// satisfiability only depends on which side of each comparison threshold a
// variable falls, not on its exact value away from those thresholds. search
// therefore only ever tries each variable's domain boundaries plus the
// literals (and their immediate neighbors) that actually appear in the
// formula, instead of its whole domain. This is sound for unit and
// small-constant-coefficient thresholds, which is everything the encoder's
// own fixtures produce; a formula whose only satisfying region falls strictly
// between two collected candidates for a non-unit-coefficient comparison
// could be missed. A real solver backend (exec.go) has no such limitation.
type MemSolver struct {
	// MaxAssignments caps the search so a formula with too many boolean
	// variables or candidate values doesn't run forever; exceeding it
	// reports Unknown rather than false Unsat.
	MaxAssignments int
}

func NewMemSolver() *MemSolver {
	return &MemSolver{MaxAssignments: 2_000_000}
}

func (s *MemSolver) CheckSat(ctx context.Context, f *Formula) (Result, Model, error) {
	var boolVars []string
	var intVars []string
	bounds := map[string][2]int64{}

	for _, d := range f.Decls {
		switch d.Sort {
		case SortBool:
			boolVars = append(boolVars, d.Name)
		case SortInt:
			if !d.HasBounds {
				return Unknown, nil, nil
			}
			intVars = append(intVars, d.Name)
			bounds[d.Name] = [2]int64{d.Min, d.Max}
		}
	}

	literals := collectIntLiterals(f.Assertions)
	candidates := map[string][]int64{}
	total := int64(1) << uint(len(boolVars))
	for _, v := range intVars {
		vals := candidateValues(bounds[v], literals)
		candidates[v] = vals
		total *= int64(len(vals))
		if total > int64(s.MaxAssignments) {
			return Unknown, nil, nil
		}
	}

	env := map[string]ModelValue{}
	found, err := search(ctx, f.Assertions, boolVars, intVars, candidates, env)
	if err != nil {
		return Unknown, nil, errors.Wrap(err, "evaluating candidate assignment")
	}
	if found == nil {
		return Unsat, nil, nil
	}
	return Sat, Model(found), nil
}

// collectIntLiterals walks every assertion collecting the distinct integer
// constants compared against, directly or as an operand of a linear
// add/sub/mul the encoder emits (e.g. a checked-arithmetic result or a
// trunc witness's "2*q" term).
func collectIntLiterals(terms []*Term) []int64 {
	seen := map[int64]bool{}
	var out []int64
	var walk func(t *Term)
	walk = func(t *Term) {
		if t == nil {
			return
		}
		if t.kind == opInt && !seen[t.intVal] {
			seen[t.intVal] = true
			out = append(out, t.intVal)
		}
		for _, c := range t.children {
			walk(c)
		}
	}
	for _, t := range terms {
		walk(t)
	}
	return out
}

// candidateValues builds the finite set of values worth trying for one
// bounded integer variable: both domain endpoints, plus every literal that
// appears anywhere in the formula together with its immediate neighbors
// (clipped to the domain), since a linear comparison's truth value only
// changes at a threshold or one step to either side of it.
func candidateValues(bound [2]int64, literals []int64) []int64 {
	min, max := bound[0], bound[1]
	seen := map[int64]bool{}
	var out []int64
	add := func(v int64) {
		if v < min || v > max || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	add(min)
	add(max)
	for _, lit := range literals {
		add(lit - 1)
		add(lit)
		add(lit + 1)
	}
	if len(out) == 0 {
		add(min)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// search enumerates every assignment of the remaining boolean variables and
// every candidate value of the remaining integer variables depth-first,
// returning the first one that satisfies every assertion.
func search(ctx context.Context, assertions []*Term, boolVars, intVars []string, candidates map[string][]int64, env map[string]ModelValue) (map[string]ModelValue, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(boolVars) > 0 {
		name := boolVars[0]
		rest := boolVars[1:]
		for _, b := range []bool{false, true} {
			env[name] = ModelValue{IsBool: true, Bool: b}
			result, err := search(ctx, assertions, rest, intVars, candidates, env)
			if err != nil || result != nil {
				return result, err
			}
		}
		delete(env, name)
		return nil, nil
	}

	if len(intVars) > 0 {
		name := intVars[0]
		rest := intVars[1:]
		for _, v := range candidates[name] {
			env[name] = ModelValue{Int: v}
			result, err := search(ctx, assertions, boolVars, rest, candidates, env)
			if err != nil || result != nil {
				return result, err
			}
		}
		delete(env, name)
		return nil, nil
	}

	for _, a := range assertions {
		v, err := Eval(a, env)
		if err != nil {
			return nil, err
		}
		if !v.Bool {
			return nil, nil
		}
	}

	snapshot := make(map[string]ModelValue, len(env))
	for k, v := range env {
		snapshot[k] = v
	}
	return snapshot, nil
}
