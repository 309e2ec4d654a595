package encode

import (
	"github.com/pkg/errors"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
	"boundedverify/internal/resolve"
	"boundedverify/internal/smt"
)

// blockVarName is the SMT boolean variable naming a block's predicate:
// "from this block, no feasible panic occurs". Prefixed separately from
// register names so a block label can never collide with a register's
// resolved name.
func blockVarName(r *resolve.Resolver, label string) string {
	return r.Prefix() + "blk_" + label
}

// encodeBlock asserts blockVar <=> (the conjunction of every instruction's
// defining equation implies the terminator's successor condition). A single
// conjoined antecedent is equivalent to a right-to-left implication fold over
// the same equations, and their order within it doesn't matter. A block with
// no instructions asserts blockVar <=> the successor condition directly.
func encodeBlock(f *smt.Formula, r *resolve.Resolver, declared map[string]bool, b *ir.BasicBlock, sink diagnostics.Sink) error {
	name := blockVarName(r, b.Label)
	f.Declare(name, smt.SortBool)

	var parts []*smt.Term
	for _, inst := range b.Instructions {
		eqs, err := encodeInstruction(f, r, declared, inst)
		if err != nil {
			return errors.Wrapf(err, "block %s", b.Label)
		}
		parts = append(parts, eqs...)
	}

	succ, err := terminatorFormula(f, r, declared, b.Terminator, sink)
	if err != nil {
		return errors.Wrapf(err, "block %s", b.Label)
	}

	body := succ
	if len(parts) > 0 {
		body = smt.Implies(smt.And(parts...), succ)
	}
	f.Assert(smt.Iff(smt.Var(name), body))
	return nil
}

// terminatorFormula computes the condition under which control leaving this
// block via term is itself panic-free: a return is trivially safe, an
// unreachable is never safe, a branch/switch defers to whichever
// successor's own predicate is reached.
func terminatorFormula(f *smt.Formula, r *resolve.Resolver, declared map[string]bool, term ir.Terminator, sink diagnostics.Sink) (*smt.Term, error) {
	switch t := term.(type) {
	case *ir.ReturnTerminator:
		return smt.BoolConst(true), nil

	case *ir.UnreachableTerminator:
		return smt.BoolConst(false), nil

	case *ir.BranchTerminator:
		if t.Cond == nil {
			return smt.Var(blockVarName(r, t.TrueLabel)), nil
		}
		condT := valueTerm(f, r, declared, t.Cond)
		return smt.Ite(condT, smt.Var(blockVarName(r, t.TrueLabel)), smt.Var(blockVarName(r, t.FalseLabel))), nil

	case *ir.SwitchTerminator:
		discT := valueTerm(f, r, declared, t.Discriminant)
		result := smt.Var(blockVarName(r, t.DefaultLabel))
		for i := len(t.Cases) - 1; i >= 0; i-- {
			c := t.Cases[i]
			caseVal := valueTerm(f, r, declared, c.Value)
			result = smt.Ite(smt.Eq(discT, caseVal), smt.Var(blockVarName(r, c.Label)), result)
		}
		return result, nil

	case *ir.UnsupportedTerminator:
		sink.Warnf("unsupported terminator %q treated as a possible panic", t.Opcode)
		return smt.BoolConst(false), nil

	default:
		return nil, errors.Errorf("unhandled terminator %T", term)
	}
}

// valueTerm resolves a terminator operand the same way instruction
// operands are resolved, without duplicating encodeInstruction's
// bookkeeping helper that also handles constant-assertion idempotency.
func valueTerm(f *smt.Formula, r *resolve.Resolver, declared map[string]bool, v *ir.Value) *smt.Term {
	return term(f, r, declared, v)
}
