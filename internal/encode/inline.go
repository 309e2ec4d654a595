// Package encode turns a call-free, phi-free ir.Function into an SMT
// formula, and provides the call-inlining pass that gets a function to that
// state in the first place.
//
// Rather than threading a namespace parameter through every
// instruction/block encode call, inlining here is done once, structurally,
// at the IR level: a call site is replaced by a branch into a freshly
// renamed copy of the callee's blocks, and the callee's returns are
// redirected into a synthesized continuation block that resumes the
// caller. The result is an ordinary, call-free function that internal/cfg,
// internal/phi, and the rest of this package can process exactly as if it
// had no calls in the first place.
package encode

import (
	"fmt"

	"github.com/segmentio/ksuid"

	"boundedverify/internal/diagnostics"
	"boundedverify/internal/ir"
)

// worklistEntry is a block still awaiting call expansion, tagged with the
// chain of function names that led to it being spliced in — the ancestry
// the recursion guard checks against, not a single global call stack, since
// two independent call sites to the same function are not recursion.
type worklistEntry struct {
	block *ir.BasicBlock
	stack []string
}

// ExpandCalls inlines every resolvable call in fn (transitively, through
// whatever depth the callee chain reaches) and returns a flat, call-free
// function. It returns a *RecursiveCallError if inlining would re-enter a
// function already on the active ancestry chain.
func ExpandCalls(mod *ir.Module, fn *ir.Function, sink diagnostics.Sink) (*ir.Function, error) {
	result := cloneFunction(fn)

	var worklist []*worklistEntry
	for _, b := range result.Blocks {
		worklist = append(worklist, &worklistEntry{block: b, stack: []string{fn.Name}})
	}

	var finished []*ir.BasicBlock
	for len(worklist) > 0 {
		entry := worklist[0]
		worklist = worklist[1:]
		b := entry.block

		idx, call := firstCall(b)
		if call == nil {
			finished = append(finished, b)
			continue
		}

		callee := mod.FunctionByName(call.Callee)
		if callee == nil {
			sink.Warnf("call to %q: not found in module, treating result as unconstrained", call.Callee)
			b.Instructions = append(append([]ir.Instruction{}, b.Instructions[:idx]...), b.Instructions[idx+1:]...)
			worklist = append([]*worklistEntry{entry}, worklist...)
			continue
		}

		if contains(entry.stack, call.Callee) {
			return nil, &RecursiveCallError{Callee: call.Callee, Stack: entry.stack}
		}

		tag := fmt.Sprintf("call_%s_", ksuid.New().String())
		calleeCopy := renameFunction(callee, tag)

		var bindings []ir.Instruction
		for i, param := range callee.Params {
			if i >= len(call.Args) {
				break
			}
			bindings = append(bindings, &ir.AssignInstruction{Dst: ir.Reg(tag+param.Name, param.Type), Src: call.Args[i]})
		}
		calleeCopy.Entry.Instructions = append(bindings, calleeCopy.Entry.Instructions...)

		postLabel := fmt.Sprintf("%s__post_%s", b.Label, tag)
		for _, cb := range calleeCopy.Blocks {
			if ret, ok := cb.Terminator.(*ir.ReturnTerminator); ok {
				if call.Dst != nil && ret.Value != nil {
					cb.Instructions = append(cb.Instructions, &ir.AssignInstruction{Dst: call.Dst, Src: ret.Value})
				}
				cb.Terminator = &ir.BranchTerminator{TrueLabel: postLabel}
			}
		}

		postBlock := &ir.BasicBlock{
			Label:        postLabel,
			Instructions: append([]ir.Instruction{}, b.Instructions[idx+1:]...),
			Terminator:   b.Terminator,
		}

		b.Instructions = b.Instructions[:idx]
		b.Terminator = &ir.BranchTerminator{TrueLabel: calleeCopy.Entry.Label}
		finished = append(finished, b)

		childStack := append(append([]string{}, entry.stack...), call.Callee)
		worklist = append(worklist, &worklistEntry{block: postBlock, stack: entry.stack})
		for _, cb := range calleeCopy.Blocks {
			worklist = append(worklist, &worklistEntry{block: cb, stack: childStack})
		}
	}

	result.Blocks = finished
	return result, nil
}

func firstCall(b *ir.BasicBlock) (int, *ir.CallInstruction) {
	for i, inst := range b.Instructions {
		if c, ok := inst.(*ir.CallInstruction); ok {
			return i, c
		}
	}
	return -1, nil
}

func contains(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
