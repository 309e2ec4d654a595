// Package smt defines the formula AST and solver contract: booleans,
// unbounded integers, and the connectives/comparisons/ite the encoder
// needs, plus a Solver interface treating the actual solving process as an
// external oracle.
package smt

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sort is the SMT-LIB2 sort a declared variable ranges over.
type Sort int

const (
	SortBool Sort = iota
	SortInt
)

func (s Sort) String() string {
	if s == SortBool {
		return "Bool"
	}
	return "Int"
}

// op names every connective/comparison/arithmetic operator the encoder
// needs, matching its SMT-LIB2 symbol.
type op string

const (
	opVar     op = "var"
	opBool    op = "bool"
	opInt     op = "int"
	opNot     op = "not"
	opAnd     op = "and"
	opOr      op = "or"
	opImplies op = "=>"
	opEq      op = "="
	opLt      op = "<"
	opLe      op = "<="
	opGt      op = ">"
	opGe      op = ">="
	opAdd     op = "+"
	opSub     op = "-"
	opMul     op = "*"
	opNeg     op = "neg"
	opIte     op = "ite"
)

// Term is one node of an SMT-LIB2 formula tree. Unlike a bare string
// builder, Term keeps its structure so memsolver.go can evaluate a term
// under a candidate assignment, not just print it for a subprocess.
type Term struct {
	kind     op
	name     string // opVar
	boolVal  bool   // opBool
	intVal   int64  // opInt
	children []*Term
}

func Var(name string) *Term       { return &Term{kind: opVar, name: name} }
func BoolConst(b bool) *Term      { return &Term{kind: opBool, boolVal: b} }
func IntConst(n int64) *Term      { return &Term{kind: opInt, intVal: n} }

func Not(a *Term) *Term        { return &Term{kind: opNot, children: []*Term{a}} }
func And(ts ...*Term) *Term    { return &Term{kind: opAnd, children: ts} }
func Or(ts ...*Term) *Term     { return &Term{kind: opOr, children: ts} }
func Implies(a, b *Term) *Term { return &Term{kind: opImplies, children: []*Term{a, b}} }
func Iff(a, b *Term) *Term     { return &Term{kind: opEq, children: []*Term{a, b}} }
func Eq(a, b *Term) *Term      { return &Term{kind: opEq, children: []*Term{a, b}} }
func Lt(a, b *Term) *Term      { return &Term{kind: opLt, children: []*Term{a, b}} }
func Le(a, b *Term) *Term      { return &Term{kind: opLe, children: []*Term{a, b}} }
func Gt(a, b *Term) *Term      { return &Term{kind: opGt, children: []*Term{a, b}} }
func Ge(a, b *Term) *Term      { return &Term{kind: opGe, children: []*Term{a, b}} }
func Add(a, b *Term) *Term     { return &Term{kind: opAdd, children: []*Term{a, b}} }
func Sub(a, b *Term) *Term     { return &Term{kind: opSub, children: []*Term{a, b}} }
func Mul(a, b *Term) *Term     { return &Term{kind: opMul, children: []*Term{a, b}} }
func Neg(a *Term) *Term        { return &Term{kind: opNeg, children: []*Term{a}} }
func Ite(c, t, e *Term) *Term  { return &Term{kind: opIte, children: []*Term{c, t, e}} }

// SMTLIB renders a term as an SMT-LIB2 s-expression.
func SMTLIB(t *Term) string {
	switch t.kind {
	case opVar:
		return t.name
	case opBool:
		if t.boolVal {
			return "true"
		}
		return "false"
	case opInt:
		if t.intVal < 0 {
			return fmt.Sprintf("(- %d)", -t.intVal)
		}
		return fmt.Sprintf("%d", t.intVal)
	case opNeg:
		return fmt.Sprintf("(- %s)", SMTLIB(t.children[0]))
	default:
		s := "(" + string(t.kind)
		for _, c := range t.children {
			s += " " + SMTLIB(c)
		}
		return s + ")"
	}
}

// Eval interprets a term under env, the way memsolver.go's brute-force
// search checks a candidate assignment without shelling out to a solver.
func Eval(t *Term, env map[string]ModelValue) (ModelValue, error) {
	switch t.kind {
	case opVar:
		v, ok := env[t.name]
		if !ok {
			return ModelValue{}, errors.Errorf("unassigned variable %q", t.name)
		}
		return v, nil
	case opBool:
		return ModelValue{IsBool: true, Bool: t.boolVal}, nil
	case opInt:
		return ModelValue{Int: t.intVal}, nil
	case opNot:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		return ModelValue{IsBool: true, Bool: !a.Bool}, nil
	case opAnd:
		for _, c := range t.children {
			v, err := Eval(c, env)
			if err != nil {
				return ModelValue{}, err
			}
			if !v.Bool {
				return ModelValue{IsBool: true, Bool: false}, nil
			}
		}
		return ModelValue{IsBool: true, Bool: true}, nil
	case opOr:
		for _, c := range t.children {
			v, err := Eval(c, env)
			if err != nil {
				return ModelValue{}, err
			}
			if v.Bool {
				return ModelValue{IsBool: true, Bool: true}, nil
			}
		}
		return ModelValue{IsBool: true, Bool: false}, nil
	case opImplies:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		if !a.Bool {
			return ModelValue{IsBool: true, Bool: true}, nil
		}
		return Eval(t.children[1], env)
	case opEq:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		b, err := Eval(t.children[1], env)
		if err != nil {
			return ModelValue{}, err
		}
		if a.IsBool || b.IsBool {
			return ModelValue{IsBool: true, Bool: a.Bool == b.Bool}, nil
		}
		return ModelValue{IsBool: true, Bool: a.Int == b.Int}, nil
	case opLt, opLe, opGt, opGe:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		b, err := Eval(t.children[1], env)
		if err != nil {
			return ModelValue{}, err
		}
		var res bool
		switch t.kind {
		case opLt:
			res = a.Int < b.Int
		case opLe:
			res = a.Int <= b.Int
		case opGt:
			res = a.Int > b.Int
		case opGe:
			res = a.Int >= b.Int
		}
		return ModelValue{IsBool: true, Bool: res}, nil
	case opAdd, opSub, opMul:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		b, err := Eval(t.children[1], env)
		if err != nil {
			return ModelValue{}, err
		}
		var res int64
		switch t.kind {
		case opAdd:
			res = a.Int + b.Int
		case opSub:
			res = a.Int - b.Int
		case opMul:
			res = a.Int * b.Int
		}
		return ModelValue{Int: res}, nil
	case opNeg:
		a, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		return ModelValue{Int: -a.Int}, nil
	case opIte:
		c, err := Eval(t.children[0], env)
		if err != nil {
			return ModelValue{}, err
		}
		if c.Bool {
			return Eval(t.children[1], env)
		}
		return Eval(t.children[2], env)
	default:
		return ModelValue{}, errors.Errorf("unhandled term kind %q", t.kind)
	}
}

// Decl is one declared formula variable. IntBounds, when HasBounds is set,
// record the signed integer range the variable's bit width implies — the
// in-process decision procedure in memsolver.go relies on this to stay a
// terminating, bounded search instead of open-ended integer enumeration.
type Decl struct {
	Name      string
	Sort      Sort
	HasBounds bool
	Min, Max  int64
}

// Formula is a full set of declarations and assertions ready to discharge.
type Formula struct {
	Decls      []Decl
	Assertions []*Term
}

func (f *Formula) Declare(name string, sort Sort) {
	f.Decls = append(f.Decls, Decl{Name: name, Sort: sort})
}

func (f *Formula) DeclareBounded(name string, min, max int64) {
	f.Decls = append(f.Decls, Decl{Name: name, Sort: SortInt, HasBounds: true, Min: min, Max: max})
}

func (f *Formula) Assert(t *Term) {
	f.Assertions = append(f.Assertions, t)
}

// smtNumeral renders n as an SMT-LIB2 numeral literal, using the (- n)
// negation form negative numerals require instead of a bare leading "-".
func smtNumeral(n int64) string {
	if n < 0 {
		return fmt.Sprintf("(- %d)", -n)
	}
	return fmt.Sprintf("%d", n)
}

// ToSMTLIB2 renders the whole formula as a solver-ready script ending in
// (check-sat) and (get-model). Every HasBounds decl gets its [Min,Max]
// range asserted right after its declaration: memsolver.go's candidate-value
// search honors Decl.Min/Max directly, but an external solver only ever sees
// the declare-const and assert lines, so the range has to be an assertion
// here too or a real solver is free to pick a value outside the variable's
// bit width.
func (f *Formula) ToSMTLIB2() string {
	out := ""
	for _, d := range f.Decls {
		out += fmt.Sprintf("(declare-const %s %s)\n", d.Name, d.Sort)
		if d.HasBounds {
			out += fmt.Sprintf("(assert (<= %s %s))\n", smtNumeral(d.Min), d.Name)
			out += fmt.Sprintf("(assert (<= %s %s))\n", d.Name, smtNumeral(d.Max))
		}
	}
	for _, a := range f.Assertions {
		out += fmt.Sprintf("(assert %s)\n", SMTLIB(a))
	}
	out += "(check-sat)\n(get-model)\n"
	return out
}
