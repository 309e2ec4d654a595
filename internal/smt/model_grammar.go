package smt

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// modelLexer tokenizes an SMT-LIB2 "(model ...)"/"(define-fun ...)" response,
// using the same stateful-lexer style as internal/irtext's lexer.
var modelLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_!.$%\-]*`, nil},
		{"Number", `[0-9]+(\.[0-9]+)?`, nil},
		{"Punctuation", `[()\-]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// modelFile is the top-level s-expression list a solver prints for
// (get-model): one pair of parens around an optional leading "model" tag
// and zero or more define-fun entries. The outer parens are required.
type modelFile struct {
	Tag     string         `"(" [ "model" ]`
	Entries []*defineEntry `@@*`
	Close   string         `")"`
}

type defineEntry struct {
	Name  string     `"(" "define-fun" @Ident "(" ")"`
	Sort  string      `@Ident`
	Value *modelValue `@@ ")"`
}

type modelValue struct {
	True  bool        `(  @"true"`
	False bool        ` | @"false"`
	Neg   *modelValue  ` | "(" "-" @@ ")"`
	Num   string      ` | @Number )`
}

var modelParser = participle.MustBuild[modelFile](
	participle.Lexer(modelLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
