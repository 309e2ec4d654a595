package irtext

import "github.com/alecthomas/participle/v2/lexer"

// File is the root of a parsed IR text document: zero or more function
// definitions.
type File struct {
	Functions []*FnDecl `@@*`
}

type FnDecl struct {
	Pos    lexer.Position
	Name   string       `"fn" @Ident "("`
	Params []*ParamDecl `[ @@ { "," @@ } ] ")"`
	Return *string      `[ Arrow @Ident ]`
	Blocks []*BlockDecl `"{" @@* "}"`
}

type ParamDecl struct {
	Pos  lexer.Position
	Name string `@Register ":"`
	Type string `@Ident`
}

type BlockDecl struct {
	Pos          lexer.Position
	Label        string       `@Ident ":"`
	Instructions []*InstrLine `@@*`
	Terminator   *TermLine    `@@`
}

// InstrLine is any non-terminator instruction: an optional destination
// register, a mnemonic (which, for icmp, embeds the predicate as the first
// operand, written without a comma before the next one; lower.go knows the
// mnemonics that need this), and an operand list.
type InstrLine struct {
	Pos      lexer.Position
	Dst      string     `[ @Register "=" ]`
	Op       string     `@Ident`
	Operands []*Operand `[ ( (?= "eq" | "ne" | "slt" | "sle" | "sgt" | "sge" | "ult" | "ule" | "ugt" | "uge") @@ @@ | @@ ) { "," @@ } ]`
}

type Operand struct {
	Phi   *PhiOperand `  @@`
	Value *ValueRef   `| @@`
}

type PhiOperand struct {
	Value *ValueRef `"[" @@ ","`
	Label string    `@Ident "]"`
}

type ValueRef struct {
	Register string  `  @Register`
	Bool     *string ` | @( "true" | "false" )`
	Number   *string ` | @Number`
	Ident    *string ` | @Ident`
}

// TermLine is the block-ending instruction: return, branch, switch, or
// unreachable.
type TermLine struct {
	Pos         lexer.Position
	Ret         *RetTerm    `  @@`
	Switch      *SwitchTerm `| @@`
	Br          *BrTerm     `| @@`
	Unreachable *string     `| @"unreachable"`
}

type RetTerm struct {
	Tag   string    `"ret"`
	Value *ValueRef `[ @@ ]`
}

type BrTerm struct {
	Tag   string    `"br"`
	Cond  *ValueRef `@@`
	True  string    `[ "," @Ident`
	False string    `  "," @Ident ]`
}

type SwitchTerm struct {
	Tag          string               `"switch"`
	Discriminant *ValueRef            `@@ ","`
	Default      string               `"default" @Ident`
	Cases        []*SwitchCaseOperand `{ "," @@ }`
}

type SwitchCaseOperand struct {
	Value *ValueRef `"[" @@ ","`
	Label string    `@Ident "]"`
}
