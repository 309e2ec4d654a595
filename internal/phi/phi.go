// Package phi rewrites SSA phi-nodes into per-predecessor edge blocks: the
// design move that keeps the per-instruction encoder purely syntactic, by
// splitting every incoming edge of a join block into its own straight-line
// block carrying the join assignment, rather than teaching the instruction
// encoder about predecessor-sensitive values. This rewrites
// boundedverify/internal/ir values directly rather than going through an
// external IR builder.
package phi

import (
	"fmt"

	"boundedverify/internal/ir"
)

type assignment struct {
	slot *ir.Value
	val  *ir.Value
}

// Eliminate returns a function with every phi instruction rewritten away.
// Calling Eliminate on a function that already has no phi instructions
// returns it unchanged: running phi-elimination a second time is a no-op.
func Eliminate(fn *ir.Function) *ir.Function {
	if !hasAnyPhi(fn) {
		return fn
	}

	var slotAllocas []ir.Instruction
	newBlocksByLabel := map[string]*ir.BasicBlock{}
	var extraBlocks []*ir.BasicBlock

	for _, b := range fn.Blocks {
		phis := leadingPhis(b)
		if len(phis) == 0 {
			continue
		}

		// Per-predecessor store lists, keyed by predecessor label so that
		// multiple phis joining in the same block share one edge block.
		byPredecessor := map[string][]assignment{}
		var predOrder []string

		for _, inst := range phis {
			phi := inst.(*ir.PhiInstruction)
			slot := ir.Reg(phi.Dst.Text+".slot", phi.Dst.Type)
			slotAllocas = append(slotAllocas, &ir.AllocaInstruction{Dst: slot})

			for _, edge := range phi.Incoming {
				if _, ok := byPredecessor[edge.Predecessor]; !ok {
					predOrder = append(predOrder, edge.Predecessor)
				}
				byPredecessor[edge.Predecessor] = append(byPredecessor[edge.Predecessor], assignment{slot: slot, val: edge.Value})
			}

			// Replace the phi with a load from its slot, at the front of
			// the block's remaining (non-phi) instructions.
			b.Instructions = append([]ir.Instruction{&ir.LoadInstruction{Dst: phi.Dst, Ptr: slot}}, nonPhiTail(b)...)
		}
		b.Instructions = stripPhis(b.Instructions)

		for _, predLabel := range predOrder {
			edgeLabel := fmt.Sprintf("%s__to__%s", predLabel, b.Label)
			edge := &ir.BasicBlock{Label: edgeLabel}
			for _, a := range byPredecessor[predLabel] {
				edge.Instructions = append(edge.Instructions, &ir.StoreInstruction{Val: a.val, Ptr: a.slot})
			}
			edge.Terminator = &ir.BranchTerminator{TrueLabel: b.Label}
			newBlocksByLabel[edgeLabel] = edge
			extraBlocks = append(extraBlocks, edge)

			pred := fn.BlockByName(predLabel)
			if pred != nil {
				retarget(pred.Terminator, b.Label, edgeLabel)
			}
		}
	}

	if len(slotAllocas) > 0 && fn.Entry != nil {
		fn.Entry.Instructions = append(append([]ir.Instruction{}, slotAllocas...), fn.Entry.Instructions...)
	}
	fn.Blocks = append(fn.Blocks, extraBlocks...)
	return fn
}

func hasAnyPhi(fn *ir.Function) bool {
	for _, b := range fn.Blocks {
		if len(leadingPhis(b)) > 0 {
			return true
		}
	}
	return false
}

// leadingPhis returns every phi instruction at the head of the block. Phis
// only ever appear before the first non-phi instruction in well-formed SSA.
func leadingPhis(b *ir.BasicBlock) []ir.Instruction {
	var phis []ir.Instruction
	for _, inst := range b.Instructions {
		if _, ok := inst.(*ir.PhiInstruction); !ok {
			break
		}
		phis = append(phis, inst)
	}
	return phis
}

func nonPhiTail(b *ir.BasicBlock) []ir.Instruction {
	return stripPhis(b.Instructions)
}

func stripPhis(insts []ir.Instruction) []ir.Instruction {
	out := make([]ir.Instruction, 0, len(insts))
	for _, inst := range insts {
		if _, ok := inst.(*ir.PhiInstruction); ok {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// retarget rewrites every reference to `from` in a predecessor's terminator
// to point at `to` instead, after inserting the edge block.
func retarget(term ir.Terminator, from, to string) {
	switch t := term.(type) {
	case *ir.BranchTerminator:
		if t.TrueLabel == from {
			t.TrueLabel = to
		}
		if t.Cond != nil && t.FalseLabel == from {
			t.FalseLabel = to
		}
	case *ir.SwitchTerminator:
		if t.DefaultLabel == from {
			t.DefaultLabel = to
		}
		for i := range t.Cases {
			if t.Cases[i].Label == from {
				t.Cases[i].Label = to
			}
		}
	}
}
