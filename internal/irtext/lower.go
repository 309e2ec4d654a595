package irtext

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"boundedverify/internal/ir"
)

// Lower walks a parsed File into an ir.Module. Two passes per function:
// the first creates every register's ir.Value (so forward references —
// phi edges naming a later block's value — already resolve), the second
// builds the actual instructions.
func Lower(moduleName string, file *File) (*ir.Module, error) {
	mod := &ir.Module{Name: moduleName}
	for _, fd := range file.Functions {
		fn, err := lowerFunction(fd)
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", fd.Name)
		}
		mod.Functions = append(mod.Functions, fn)
	}
	return mod, nil
}

type funcCtx struct {
	regs map[string]*ir.Value
}

func lowerFunction(fd *FnDecl) (*ir.Function, error) {
	fn := &ir.Function{Name: fd.Name, ReturnType: parseType(derefStr(fd.Return))}
	ctx := &funcCtx{regs: map[string]*ir.Value{}}

	for _, p := range fd.Params {
		v := ir.Reg(p.Name, parseType(p.Type))
		ctx.regs[p.Name] = v
		fn.Params = append(fn.Params, &ir.Parameter{Name: p.Name, Type: v.Type})
	}

	// Pass 1: register every destination so forward references resolve.
	for _, bd := range fd.Blocks {
		for _, il := range bd.Instructions {
			if il.Dst == "" {
				continue
			}
			if _, ok := ctx.regs[il.Dst]; ok {
				continue
			}
			ctx.regs[il.Dst] = ir.Reg(il.Dst, inferType(il.Op))
		}
	}

	blockByLabel := map[string]*ir.BasicBlock{}
	for _, bd := range fd.Blocks {
		b := &ir.BasicBlock{Label: bd.Label}
		blockByLabel[bd.Label] = b
		fn.Blocks = append(fn.Blocks, b)
	}
	if len(fn.Blocks) > 0 {
		fn.Entry = fn.Blocks[0]
	}

	// Pass 2: build instructions and terminators now that every register
	// exists.
	for bi, bd := range fd.Blocks {
		b := fn.Blocks[bi]
		for _, il := range bd.Instructions {
			inst, err := lowerInstruction(ctx, il)
			if err != nil {
				return nil, errors.Wrapf(err, "block %s", bd.Label)
			}
			b.Instructions = append(b.Instructions, inst)
		}
		term, err := lowerTerminator(ctx, bd.Terminator)
		if err != nil {
			return nil, errors.Wrapf(err, "block %s", bd.Label)
		}
		b.Terminator = term
	}

	return fn, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseType maps a surface type name to ir.Type. "i1" is boolean; "i8",
// "i16", "i32", "i64" are the supported integer widths; anything else is
// UnsupportedType, so a later stage reports it rather than lowering failing.
func parseType(name string) ir.Type {
	if name == "" {
		return nil
	}
	if name == "i1" {
		return ir.BoolType{}
	}
	if strings.HasPrefix(name, "i") {
		if n, err := strconv.Atoi(name[1:]); err == nil && ir.IsSupportedIntWidth(n) {
			return ir.IntType{Bits: n}
		}
	}
	return ir.UnsupportedType{Name: name}
}

// inferType guesses a destination register's type from its defining
// instruction's mnemonic. The textual surface syntax doesn't annotate
// every destination's type explicitly (only parameters and return types
// are), so integer-producing instructions default to i64 when no narrower
// width is named by a trailing ".iN" suffix on the mnemonic. Checked
// arithmetic results are typed i64 whatever width their mnemonic names;
// extractvalue results start as i64 and lowerInstruction retypes a field-1
// (overflow flag) extraction to i1.
func inferType(op string) ir.Type {
	switch {
	case op == "icmp", op == "xor", op == "trunc", strings.HasPrefix(op, "expect"):
		return ir.BoolType{}
	case isCheckedArith(op):
		return ir.IntType{Bits: 64} // only .0/.1 fields are actually used
	default:
		if width, ok := trailingWidth(op); ok {
			return ir.IntType{Bits: width}
		}
		return ir.IntType{Bits: 64}
	}
}

func trailingWidth(op string) (int, bool) {
	idx := strings.LastIndex(op, ".i")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(op[idx+2:])
	if err != nil || !ir.IsSupportedIntWidth(n) {
		return 0, false
	}
	return n, true
}

func isCheckedArith(op string) bool {
	return strings.HasPrefix(op, "sadd.with.overflow") ||
		strings.HasPrefix(op, "ssub.with.overflow") ||
		strings.HasPrefix(op, "smul.with.overflow")
}

func checkedArithOp(op string) ir.CheckedArithOp {
	switch {
	case strings.HasPrefix(op, "sadd"):
		return ir.CheckedAdd
	case strings.HasPrefix(op, "ssub"):
		return ir.CheckedSub
	default:
		return ir.CheckedMul
	}
}

func (ctx *funcCtx) resolve(v *ValueRef) (*ir.Value, error) {
	switch {
	case v.Register != "":
		reg, ok := ctx.regs[v.Register]
		if !ok {
			return nil, errors.Errorf("reference to undeclared register %s", v.Register)
		}
		return reg, nil
	case v.Bool != nil:
		return ir.ConstBool(*v.Bool == "true", ir.BoolType{}), nil
	case v.Number != nil:
		n, err := strconv.ParseInt(*v.Number, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid integer literal %q", *v.Number)
		}
		return ir.ConstInt(n, ir.IntType{Bits: 64}), nil
	default:
		return nil, errors.Errorf("expected a value, got bare identifier %q", derefStr(v.Ident))
	}
}

func lowerInstruction(ctx *funcCtx, il *InstrLine) (ir.Instruction, error) {
	ops := il.Operands
	dst := ctx.regs[il.Dst]

	switch {
	case il.Op == "load":
		ptr, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		return &ir.LoadInstruction{Dst: dst, Ptr: ptr}, nil

	case il.Op == "store":
		val, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		ptr, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		return &ir.StoreInstruction{Val: val, Ptr: ptr}, nil

	case il.Op == "alloca":
		return &ir.AllocaInstruction{Dst: dst}, nil

	case il.Op == "icmp":
		pred := ir.ICmpPredicate(derefStr(ops[0].Value.Ident))
		a, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		b, err := ctx.resolve(ops[2].Value)
		if err != nil {
			return nil, err
		}
		return &ir.ICmpInstruction{Dst: dst, Pred: pred, A: a, B: b}, nil

	case il.Op == "xor":
		a, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		b, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		return &ir.XorInstruction{Dst: dst, A: a, B: b}, nil

	case il.Op == "trunc":
		src, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		return &ir.TruncInstruction{Dst: dst, Src: src}, nil

	case il.Op == "zext":
		src, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		return &ir.ZextInstruction{Dst: dst, Src: src}, nil

	case il.Op == "select":
		cond, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		a, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		b, err := ctx.resolve(ops[2].Value)
		if err != nil {
			return nil, err
		}
		return &ir.SelectInstruction{Dst: dst, Cond: cond, A: a, B: b}, nil

	case il.Op == "extractvalue":
		agg, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(derefStr(ops[1].Value.Number))
		if err != nil {
			return nil, errors.Wrap(err, "extractvalue index")
		}
		if idx == 1 && dst != nil {
			// Field 1 of a checked-arithmetic result is its overflow flag.
			dst.Type = ir.BoolType{}
		}
		return &ir.ExtractValueInstruction{Dst: dst, Agg: agg, Index: idx}, nil

	case strings.HasPrefix(il.Op, "expect"):
		a, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		b, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		return &ir.ExpectInstruction{Dst: dst, A: a, B: b}, nil

	case il.Op == "call":
		callee := derefStr(ops[0].Value.Ident)
		if callee == "panic" && il.Dst == "" {
			return &ir.PanicCallInstruction{Callee: callee}, nil
		}
		var args []*ir.Value
		for _, o := range ops[1:] {
			a, err := ctx.resolve(o.Value)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ir.CallInstruction{Dst: dst, Callee: callee, Args: args}, nil

	case isCheckedArith(il.Op):
		width, _ := trailingWidth(il.Op)
		a, err := ctx.resolve(ops[0].Value)
		if err != nil {
			return nil, err
		}
		b, err := ctx.resolve(ops[1].Value)
		if err != nil {
			return nil, err
		}
		return &ir.CheckedArithInstruction{Dst: dst, Op: checkedArithOp(il.Op), Width: width, A: a, B: b}, nil

	case il.Op == "phi":
		var edges []ir.PhiEdge
		for _, o := range ops {
			if o.Phi == nil {
				return nil, errors.New("phi operand must be [value, predecessor]")
			}
			v, err := ctx.resolve(o.Phi.Value)
			if err != nil {
				return nil, err
			}
			edges = append(edges, ir.PhiEdge{Value: v, Predecessor: o.Phi.Label})
		}
		return &ir.PhiInstruction{Dst: dst, Incoming: edges}, nil

	default:
		return nil, errors.Errorf("unsupported instruction mnemonic %q", il.Op)
	}
}

func lowerTerminator(ctx *funcCtx, t *TermLine) (ir.Terminator, error) {
	switch {
	case t.Ret != nil:
		if t.Ret.Value == nil {
			return &ir.ReturnTerminator{}, nil
		}
		v, err := ctx.resolve(t.Ret.Value)
		if err != nil {
			return nil, err
		}
		return &ir.ReturnTerminator{Value: v}, nil

	case t.Unreachable != nil:
		return &ir.UnreachableTerminator{}, nil

	case t.Switch != nil:
		disc, err := ctx.resolve(t.Switch.Discriminant)
		if err != nil {
			return nil, err
		}
		var cases []ir.SwitchCase
		for _, c := range t.Switch.Cases {
			v, err := ctx.resolve(c.Value)
			if err != nil {
				return nil, err
			}
			cases = append(cases, ir.SwitchCase{Value: v, Label: c.Label})
		}
		return &ir.SwitchTerminator{Discriminant: disc, DefaultLabel: t.Switch.Default, Cases: cases}, nil

	case t.Br != nil:
		if t.Br.True == "" {
			// Unconditional: the "condition" slot actually held the bare
			// target block label.
			return &ir.BranchTerminator{TrueLabel: derefStr(t.Br.Cond.Ident)}, nil
		}
		cond, err := ctx.resolve(t.Br.Cond)
		if err != nil {
			return nil, err
		}
		return &ir.BranchTerminator{Cond: cond, TrueLabel: t.Br.True, FalseLabel: t.Br.False}, nil

	default:
		return nil, errors.New("block has no terminator")
	}
}
