package encode

import "boundedverify/internal/ir"

// cloneFunction copies a function's blocks, their instruction lists and
// their terminators so the inliner (splitting blocks at call sites) and phi
// elimination (retargeting branches) can mutate them without touching the
// module's original, reusable definition. Instruction values themselves are
// shared with the original.
func cloneFunction(fn *ir.Function) *ir.Function {
	out := &ir.Function{Name: fn.Name, Params: fn.Params, ReturnType: fn.ReturnType}
	blockCopy := make(map[*ir.BasicBlock]*ir.BasicBlock, len(fn.Blocks))
	sameLabel := func(l string) string { return l }
	for _, b := range fn.Blocks {
		term, _ := renameTerminator(b.Terminator, "", sameLabel).(ir.Terminator)
		nb := &ir.BasicBlock{Label: b.Label, Instructions: append([]ir.Instruction{}, b.Instructions...), Terminator: term}
		blockCopy[b] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	if fn.Entry != nil {
		out.Entry = blockCopy[fn.Entry]
	}
	return out
}

// renameFunction produces a fresh copy of callee with every register name
// and block label prefixed by tag, so splicing it into a caller's block
// list at a call site can never collide with the caller's own names. This
// is how call inlining gets its "fresh, unique namespace per call site"
// without internal/encode's block/instruction encoders needing any
// namespace-awareness of their own.
func renameFunction(callee *ir.Function, tag string) *ir.Function {
	out := &ir.Function{Name: callee.Name, Params: callee.Params, ReturnType: callee.ReturnType}
	labelOf := func(l string) string { return tag + l }

	blockByNewLabel := map[string]*ir.BasicBlock{}
	for _, b := range callee.Blocks {
		nb := &ir.BasicBlock{Label: labelOf(b.Label)}
		for _, inst := range b.Instructions {
			nb.Instructions = append(nb.Instructions, renameInstruction(inst, tag))
		}
		nb.Terminator = renameTerminator(b.Terminator, tag, labelOf).(ir.Terminator)
		blockByNewLabel[nb.Label] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	if callee.Entry != nil {
		out.Entry = blockByNewLabel[labelOf(callee.Entry.Label)]
	}
	return out
}

func renameValue(v *ir.Value, tag string) *ir.Value {
	if v == nil || v.IsConst {
		return v
	}
	return ir.Reg(tag+v.Text, v.Type)
}

func renameInstruction(inst ir.Instruction, tag string) ir.Instruction {
	switch i := inst.(type) {
	case *ir.LoadInstruction:
		return &ir.LoadInstruction{Dst: renameValue(i.Dst, tag), Ptr: renameValue(i.Ptr, tag)}
	case *ir.StoreInstruction:
		return &ir.StoreInstruction{Val: renameValue(i.Val, tag), Ptr: renameValue(i.Ptr, tag)}
	case *ir.AllocaInstruction:
		return &ir.AllocaInstruction{Dst: renameValue(i.Dst, tag)}
	case *ir.ICmpInstruction:
		return &ir.ICmpInstruction{Dst: renameValue(i.Dst, tag), Pred: i.Pred, A: renameValue(i.A, tag), B: renameValue(i.B, tag)}
	case *ir.XorInstruction:
		return &ir.XorInstruction{Dst: renameValue(i.Dst, tag), A: renameValue(i.A, tag), B: renameValue(i.B, tag)}
	case *ir.TruncInstruction:
		return &ir.TruncInstruction{Dst: renameValue(i.Dst, tag), Src: renameValue(i.Src, tag)}
	case *ir.ZextInstruction:
		return &ir.ZextInstruction{Dst: renameValue(i.Dst, tag), Src: renameValue(i.Src, tag)}
	case *ir.SelectInstruction:
		return &ir.SelectInstruction{Dst: renameValue(i.Dst, tag), Cond: renameValue(i.Cond, tag), A: renameValue(i.A, tag), B: renameValue(i.B, tag)}
	case *ir.ExtractValueInstruction:
		return &ir.ExtractValueInstruction{Dst: renameValue(i.Dst, tag), Agg: renameValue(i.Agg, tag), Index: i.Index}
	case *ir.PhiInstruction:
		edges := make([]ir.PhiEdge, len(i.Incoming))
		for idx, e := range i.Incoming {
			edges[idx] = ir.PhiEdge{Value: renameValue(e.Value, tag), Predecessor: tag + e.Predecessor}
		}
		return &ir.PhiInstruction{Dst: renameValue(i.Dst, tag), Incoming: edges}
	case *ir.CheckedArithInstruction:
		return &ir.CheckedArithInstruction{Dst: renameValue(i.Dst, tag), Op: i.Op, Width: i.Width, A: renameValue(i.A, tag), B: renameValue(i.B, tag)}
	case *ir.ExpectInstruction:
		return &ir.ExpectInstruction{Dst: renameValue(i.Dst, tag), A: renameValue(i.A, tag), B: renameValue(i.B, tag)}
	case *ir.PanicCallInstruction:
		return &ir.PanicCallInstruction{Callee: i.Callee}
	case *ir.CallInstruction:
		args := make([]*ir.Value, len(i.Args))
		for idx, a := range i.Args {
			args[idx] = renameValue(a, tag)
		}
		return &ir.CallInstruction{Dst: renameValue(i.Dst, tag), Callee: i.Callee, Args: args}
	case *ir.AssignInstruction:
		return &ir.AssignInstruction{Dst: renameValue(i.Dst, tag), Src: renameValue(i.Src, tag)}
	default:
		return inst
	}
}

func renameTerminator(term ir.Terminator, tag string, labelOf func(string) string) any {
	switch t := term.(type) {
	case *ir.ReturnTerminator:
		return &ir.ReturnTerminator{Value: renameValue(t.Value, tag)}
	case *ir.BranchTerminator:
		nt := &ir.BranchTerminator{Cond: renameValue(t.Cond, tag), TrueLabel: labelOf(t.TrueLabel)}
		if t.Cond != nil {
			nt.FalseLabel = labelOf(t.FalseLabel)
		}
		return nt
	case *ir.SwitchTerminator:
		cases := make([]ir.SwitchCase, len(t.Cases))
		for idx, c := range t.Cases {
			cases[idx] = ir.SwitchCase{Value: renameValue(c.Value, tag), Label: labelOf(c.Label)}
		}
		return &ir.SwitchTerminator{Discriminant: renameValue(t.Discriminant, tag), DefaultLabel: labelOf(t.DefaultLabel), Cases: cases}
	case *ir.UnreachableTerminator:
		return &ir.UnreachableTerminator{}
	case *ir.UnsupportedTerminator:
		return &ir.UnsupportedTerminator{Opcode: t.Opcode}
	default:
		return term
	}
}
